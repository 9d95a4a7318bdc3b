package browser

import (
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestCookieStoreRoundTrip(t *testing.T) {
	store := NewCookieStore(filepath.Join(t.TempDir(), "state", "cookies.json"))

	in := []*proto.NetworkCookie{
		{Name: "sid", Value: "abc123", Domain: ".uber.com", Path: "/", Secure: true, HTTPOnly: true},
		{Name: "locale", Value: "en", Domain: "m.uber.com", Path: "/"},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d cookies, want 2", len(out))
	}
	if out[0].Name != "sid" || out[0].Value != "abc123" || !out[0].Secure {
		t.Errorf("first cookie mangled: %+v", out[0])
	}
	if out[1].Domain != "m.uber.com" {
		t.Errorf("second cookie domain = %q", out[1].Domain)
	}
}

func TestCookieStoreLoadMissing(t *testing.T) {
	store := NewCookieStore(filepath.Join(t.TempDir(), "absent.json"))

	cookies, err := store.Load()
	if err != nil {
		t.Fatalf("Load of missing file should not error, got %v", err)
	}
	if cookies != nil {
		t.Errorf("got %v, want nil", cookies)
	}
}

func TestCookieStoreOverwrite(t *testing.T) {
	store := NewCookieStore(filepath.Join(t.TempDir(), "cookies.json"))

	if err := store.Save([]*proto.NetworkCookie{{Name: "old", Value: "1"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save([]*proto.NetworkCookie{{Name: "new", Value: "2"}}); err != nil {
		t.Fatal(err)
	}

	cookies, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cookies) != 1 || cookies[0].Name != "new" {
		t.Errorf("save should replace, got %+v", cookies)
	}
}
