package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name string
		attr slog.Attr
		key  string
		val  string
	}{
		{"Store", Store("items"), KeyStore, "items"},
		{"TaskID", TaskID("load_page_2"), KeyTaskID, "load_page_2"},
		{"TaskToken", TaskToken("abc"), KeyTaskToken, "abc"},
		{"Priority", Priority("high"), KeyPriority, "high"},
		{"Phase", Phase("loading"), KeyPhase, "loading"},
		{"URL", URL("http://x"), KeyURL, "http://x"},
		{"Path", Path("/tmp/x"), KeyPath, "/tmp/x"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.attr.Key != c.key {
				t.Fatalf("key = %q, want %q", c.attr.Key, c.key)
			}
			if got := c.attr.Value.String(); got != c.val {
				t.Fatalf("value = %q, want %q", got, c.val)
			}
		})
	}
}

func TestIntHelpers(t *testing.T) {
	if a := Page(3); a.Key != KeyPage || a.Value.Int64() != 3 {
		t.Fatalf("Page(3) = %v", a)
	}
	if a := DelayMS(1500 * time.Millisecond); a.Key != KeyDelayMS || a.Value.Int64() != 1500 {
		t.Fatalf("DelayMS = %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("Error(nil) = %q, want empty", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("Error(boom) = %q, want boom", a.Value.String())
	}
}
