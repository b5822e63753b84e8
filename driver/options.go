package driver

import "strings"

// Prefixes recognized in a custom-options string.
const (
	argPrefix  = "ARG:"
	prefPrefix = "PREF:"
	capPrefix  = "CAP:"
)

// Options is the parsed form of a comma-separated custom-options string.
// Prefs and Caps values are booleans when the raw value was the literal
// "true" or "false", strings otherwise.
type Options struct {
	Args  []string
	Prefs map[string]any
	Caps  map[string]any
	// Ignored collects PREF:/CAP: tokens without a key=value shape. They
	// never fail the build; the builder logs them.
	Ignored []string
}

// ParseOptions splits a comma-separated custom-options string into typed
// option groups. Tokens carry an ARG:, PREF: or CAP: prefix; a bare token is
// treated as an argument. Empty tokens are skipped.
func ParseOptions(raw string) Options {
	opts := Options{Prefs: map[string]any{}, Caps: map[string]any{}}
	if strings.TrimSpace(raw) == "" {
		return opts
	}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch {
		case strings.HasPrefix(tok, argPrefix):
			if arg := strings.TrimSpace(strings.TrimPrefix(tok, argPrefix)); arg != "" {
				opts.Args = append(opts.Args, arg)
			}
		case strings.HasPrefix(tok, prefPrefix):
			key, val, ok := splitKV(strings.TrimPrefix(tok, prefPrefix))
			if !ok {
				opts.Ignored = append(opts.Ignored, tok)
				continue
			}
			opts.Prefs[key] = coerce(val)
		case strings.HasPrefix(tok, capPrefix):
			key, val, ok := splitKV(strings.TrimPrefix(tok, capPrefix))
			if !ok {
				opts.Ignored = append(opts.Ignored, tok)
				continue
			}
			opts.Caps[key] = coerce(val)
		default:
			opts.Args = append(opts.Args, tok)
		}
	}
	return opts
}

func splitKV(s string) (string, string, bool) {
	key, val, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	val = strings.TrimSpace(val)
	if !ok || key == "" {
		return "", "", false
	}
	return key, val, true
}

// coerce maps the literal strings "true"/"false" (any case) to booleans.
// Every other value stays a string.
func coerce(val string) any {
	if strings.EqualFold(val, "true") {
		return true
	}
	if strings.EqualFold(val, "false") {
		return false
	}
	return val
}
