package driver

import (
	"reflect"
	"testing"
)

func TestParseOptions(t *testing.T) {
	opts := ParseOptions("ARG:--incognito,PREF:download.default_directory=/tmp/dl,CAP:acceptInsecureCerts=true,start-maximized")

	wantArgs := []string{"--incognito", "start-maximized"}
	if !reflect.DeepEqual(opts.Args, wantArgs) {
		t.Errorf("Args = %v, want %v", opts.Args, wantArgs)
	}
	if got := opts.Prefs["download.default_directory"]; got != "/tmp/dl" {
		t.Errorf("Prefs[download.default_directory] = %v, want /tmp/dl", got)
	}
	if got := opts.Caps["acceptInsecureCerts"]; got != true {
		t.Errorf("Caps[acceptInsecureCerts] = %v (%T), want boolean true", got, got)
	}
}

func TestParseOptionsCoercion(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"CAP:k=true", true},
		{"CAP:k=TRUE", true},
		{"CAP:k=false", false},
		{"CAP:k=False", false},
		{"CAP:k=1", "1"},
		{"CAP:k=truthy", "truthy"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			opts := ParseOptions(tt.raw)
			if got := opts.Caps["k"]; got != tt.want {
				t.Errorf("Caps[k] = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestParseOptionsEmptyAndWhitespace(t *testing.T) {
	for _, raw := range []string{"", "   ", ",,,", " , "} {
		opts := ParseOptions(raw)
		if len(opts.Args) != 0 || len(opts.Prefs) != 0 || len(opts.Caps) != 0 {
			t.Errorf("ParseOptions(%q) = %+v, want empty groups", raw, opts)
		}
	}
}

func TestParseOptionsMalformedTokensAreCollected(t *testing.T) {
	opts := ParseOptions("PREF:noequals,CAP:=value,ARG:--fine")

	if len(opts.Ignored) != 2 {
		t.Fatalf("Ignored = %v, want the two malformed tokens", opts.Ignored)
	}
	if len(opts.Args) != 1 || opts.Args[0] != "--fine" {
		t.Errorf("Args = %v, want the well-formed argument kept", opts.Args)
	}
}

func TestParseOptionsTrimsTokens(t *testing.T) {
	opts := ParseOptions(" ARG:--one , PREF:k = v ")
	if len(opts.Args) != 1 || opts.Args[0] != "--one" {
		t.Errorf("Args = %v, want trimmed --one", opts.Args)
	}
	if got := opts.Prefs["k"]; got != "v" {
		t.Errorf("Prefs[k] = %v, want trimmed v", got)
	}
}
