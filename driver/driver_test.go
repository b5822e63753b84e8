package driver

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildUnsupportedBrowser(t *testing.T) {
	b := NewBuilder(nil, nil)
	_, err := b.Build(Request{Browser: "opera"})
	if !errors.Is(err, ErrUnsupportedBrowser) {
		t.Fatalf("Build error = %v, want ErrUnsupportedBrowser", err)
	}
	if !strings.Contains(err.Error(), "chrome, edge, firefox, safari") {
		t.Errorf("error %q does not enumerate the supported browsers", err)
	}
}

func TestIdentity(t *testing.T) {
	a, b := &Session{}, &Session{}
	ia, ib := identity(a), identity(b)
	if ia == "" || ib == "" {
		t.Fatal("identity returned an empty id")
	}
	if ia == ib {
		t.Errorf("identity(a) == identity(b) == %q, want distinct ids", ia)
	}
	if strings.HasPrefix(ia, "0x") {
		t.Errorf("identity = %q, want the 0x prefix stripped", ia)
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	s := &Session{}
	if err := s.Close(); err != nil {
		t.Fatalf("first Close = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}
}
