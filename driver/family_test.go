package driver

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFamilyForResolution(t *testing.T) {
	tests := []struct {
		identifier string
		want       string
	}{
		{"chrome", "chrome"},
		{"chrome headless", "chrome"},
		{"Google Chrome 120", "chrome"},
		{"edge", "edge"},
		{"Edge headless", "edge"},
		{"firefox", "firefox"},
		{"FIREFOX", "firefox"},
		{"safari", "safari"},
		{"Safari 17", "safari"},
	}
	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			fam, err := familyFor(tt.identifier, nil)
			if err != nil {
				t.Fatalf("familyFor(%q) error = %v", tt.identifier, err)
			}
			if fam.Name() != tt.want {
				t.Errorf("familyFor(%q).Name() = %q, want %q", tt.identifier, fam.Name(), tt.want)
			}
		})
	}
}

func TestFamilyForUnsupported(t *testing.T) {
	for _, identifier := range []string{"opera", "ie11", ""} {
		_, err := familyFor(identifier, nil)
		if !errors.Is(err, ErrUnsupportedBrowser) {
			t.Fatalf("familyFor(%q) error = %v, want ErrUnsupportedBrowser", identifier, err)
		}
		for _, name := range supportedBrowsers {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("error %q does not list supported browser %q", err, name)
			}
		}
	}
}

func TestFamilyForEdgeUsesMsedgeChannel(t *testing.T) {
	fam, err := familyFor("edge headless", nil)
	if err != nil {
		t.Fatal(err)
	}
	cf, ok := fam.(*chromiumFamily)
	if !ok {
		t.Fatalf("familyFor(edge) = %T, want *chromiumFamily", fam)
	}
	if cf.channel != "msedge" {
		t.Errorf("channel = %q, want msedge", cf.channel)
	}
}

func TestChromiumAccumulatesOptions(t *testing.T) {
	fam, err := familyFor("chrome", nil)
	if err != nil {
		t.Fatal(err)
	}
	fam.ApplyArgument("incognito")
	fam.ApplyArgument("--disable-gpu")
	fam.ApplyPreference("download.default_directory", "/tmp/dl")
	fam.ApplyCapability("acceptInsecureCerts", true)

	cf := fam.(*chromiumFamily)
	wantArgs := []string{"--incognito", "--disable-gpu"}
	if !reflect.DeepEqual(cf.args, wantArgs) {
		t.Errorf("args = %v, want %v", cf.args, wantArgs)
	}
	if got := cf.prefs["download.default_directory"]; got != "/tmp/dl" {
		t.Errorf("prefs = %v, want the applied preference", cf.prefs)
	}
	if cf.caps.ignoreHTTPSErrors == nil || !*cf.caps.ignoreHTTPSErrors {
		t.Error("acceptInsecureCerts capability was not applied")
	}
}

func TestSafariIgnoresArgumentsAndPreferences(t *testing.T) {
	fam, err := familyFor("safari", nil)
	if err != nil {
		t.Fatal(err)
	}
	fam.ApplyArgument("--incognito")
	fam.ApplyPreference("some.pref", "x")
	fam.ApplyCapability("headless", "false")

	wf := fam.(*webkitFamily)
	if wf.caps.headless == nil || *wf.caps.headless {
		t.Error("headless capability was not applied")
	}
}

func TestCapSetApply(t *testing.T) {
	caps := newCapSet(nil)
	caps.apply("acceptInsecureCerts", "true")
	caps.apply("headless", "false")
	caps.apply("slowMo", "250")
	caps.apply("viewportWidth", "1280")
	caps.apply("viewportHeight", "720")
	caps.apply("channel", "chrome-beta")
	caps.apply("unknownCap", "whatever")

	if caps.ignoreHTTPSErrors == nil || !*caps.ignoreHTTPSErrors {
		t.Error("acceptInsecureCerts not mapped")
	}
	if caps.headless == nil || *caps.headless {
		t.Error("headless not mapped")
	}
	if caps.slowMoMs == nil || *caps.slowMoMs != 250 {
		t.Error("slowMo not mapped")
	}
	if caps.viewportW == nil || *caps.viewportW != 1280 || caps.viewportH == nil || *caps.viewportH != 720 {
		t.Error("viewport not mapped")
	}
	if caps.channel != "chrome-beta" {
		t.Errorf("channel = %q, want chrome-beta", caps.channel)
	}
	if _, ok := caps.extra["unknownCap"]; !ok {
		t.Error("unknown capability should be kept in extra")
	}
}

func TestCapSetHeadlessOr(t *testing.T) {
	caps := newCapSet(nil)
	if !caps.headlessOr(true) {
		t.Error("headlessOr(true) without override = false")
	}
	caps.apply("headless", "false")
	if caps.headlessOr(true) {
		t.Error("headless capability should override the computed flag")
	}
}

func TestCapSetContextOptions(t *testing.T) {
	caps := newCapSet(nil)
	caps.apply("viewportWidth", "800")
	opts := caps.contextOptions(LaunchSpec{VideoDir: "/tmp/videos", BaseURL: "https://example.test"})

	if opts.Viewport != nil {
		t.Error("viewport should need both dimensions")
	}
	if opts.RecordVideo == nil || opts.RecordVideo.Dir != "/tmp/videos" {
		t.Errorf("RecordVideo = %+v, want dir /tmp/videos", opts.RecordVideo)
	}
	if opts.BaseURL == nil || *opts.BaseURL != "https://example.test" {
		t.Error("BaseURL not propagated")
	}

	caps.apply("viewportHeight", "600")
	opts = caps.contextOptions(LaunchSpec{})
	if opts.Viewport == nil || opts.Viewport.Width != 800 || opts.Viewport.Height != 600 {
		t.Errorf("Viewport = %+v, want 800x600", opts.Viewport)
	}
	if opts.RecordVideo != nil {
		t.Error("RecordVideo should be unset without a video dir")
	}
}

func TestNormalizeArg(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"incognito", "--incognito"},
		{"--incognito", "--incognito"},
		{"-lang=en", "-lang=en"},
		{"headless=new", "--headless=new"},
	}
	for _, tt := range tests {
		if got := normalizeArg(tt.in); got != tt.want {
			t.Errorf("normalizeArg(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandDotted(t *testing.T) {
	got := expandDotted(map[string]any{
		"download.default_directory":   "/tmp/dl",
		"download.prompt_for_download": false,
		"plain":                        "v",
	})
	download, ok := got["download"].(map[string]any)
	if !ok {
		t.Fatalf("download = %T, want nested map", got["download"])
	}
	if download["default_directory"] != "/tmp/dl" || download["prompt_for_download"] != false {
		t.Errorf("download = %v, want both dotted keys merged", download)
	}
	if got["plain"] != "v" {
		t.Errorf("plain = %v, want v", got["plain"])
	}
}

func TestWriteChromiumProfile(t *testing.T) {
	dir, err := writeChromiumProfile(map[string]any{"download.prompt_for_download": false})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	raw, err := os.ReadFile(filepath.Join(dir, "Default", "Preferences"))
	if err != nil {
		t.Fatal(err)
	}
	var prefs map[string]any
	if err := json.Unmarshal(raw, &prefs); err != nil {
		t.Fatalf("Preferences is not valid JSON: %v", err)
	}
	download, ok := prefs["download"].(map[string]any)
	if !ok || download["prompt_for_download"] != false {
		t.Errorf("Preferences = %v, want nested download settings", prefs)
	}
}
