package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p := Load("")
	if p != Default() {
		t.Fatalf("Load = %+v, want %+v", p, Default())
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "statekit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte("theme = \"Slate\"\nshow_activity = false\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load("")
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Slate")
	}
	if p.ShowActivity {
		t.Fatalf("ShowActivity = true, want false")
	}
}

func TestLoad_MissingKeysKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("theme = \"  \"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load(path)
	if p.Theme != defaultTheme || !p.ShowActivity {
		t.Fatalf("Load = %+v, want defaults", p)
	}
}

func TestLoad_InvalidTOMLUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("theme = [\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if p := Load(path); p != Default() {
		t.Fatalf("Load = %+v, want defaults", p)
	}
}

func TestSave_RoundTripsAndCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "prefs.toml")
	want := Prefs{Theme: "Slate", ShowActivity: false}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := Load(path); got != want {
		t.Fatalf("Load after Save = %+v, want %+v", got, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only prefs.toml", len(entries))
	}
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := Save(path, Prefs{Theme: "Slate", ShowActivity: true}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := Save(path, Prefs{Theme: "Dracula", ShowActivity: true}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if got := Load(path).Theme; got != "Dracula" {
		t.Fatalf("Theme = %q, want Dracula", got)
	}
}
