package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, p, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirRecursive(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "b", "two.yaml"), "title: B1\ndetection:\n  s:\n    a: 1\n  condition: s\n---\ntitle: B2\ndetection:\n  s:\n    a: 2\n  condition: s\n")
	write(t, filepath.Join(root, "a.yml"), "title: A\ndetection:\n  s:\n    a: 1\n  condition: s\n")
	write(t, filepath.Join(root, "notes.txt"), "ignored")

	rs, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rs) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rs))
	}
	for i, want := range []string{"A", "B1", "B2"} {
		if got, _ := rs[i].String("title"); got != want {
			t.Errorf("rule %d title = %q, want %q", i, got, want)
		}
		if rs[i].Index != i {
			t.Errorf("rule %d index = %d", i, rs[i].Index)
		}
	}
	if rs[0].Source != filepath.Join(root, "a.yml") {
		t.Errorf("source = %s", rs[0].Source)
	}
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "one.yml")
	write(t, p, "title: One\ndetection:\n  s:\n    a: 1\n  condition: s\n")
	rs, err := Load(p)
	if err != nil || len(rs) != 1 {
		t.Fatalf("Load file: %v %d", err, len(rs))
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("missing path should fail")
	}
	root := t.TempDir()
	write(t, filepath.Join(root, "bad.yml"), "title: x\ndetection:\n  s:\n    a: 1\n")
	if _, err := Load(root); err == nil {
		t.Fatal("rule without condition should fail")
	}
}
