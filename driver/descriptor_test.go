package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tamzrod/divecomputer/status"
)

func TestMatchesAllowlistIsCaseInsensitive(t *testing.T) {
	if !matchesAllowlist("uwatec aladin", enumIrdaAllowlist) {
		t.Fatal("expected case-insensitive match")
	}
	if matchesAllowlist("Not A Dive Computer", enumIrdaAllowlist) {
		t.Fatal("expected no match")
	}
}

func TestLoadDescriptorsParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "descriptors.yaml")
	contents := "descriptors:\n  - vendor: Acme\n    product: Widget\n    family: acme_widget\n    model: 1\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	got, st := LoadDescriptors(path)
	if st != status.Success {
		t.Fatalf("LoadDescriptors: %v", st)
	}
	if len(got) != 1 || got[0].Vendor != "Acme" || got[0].Model != 1 {
		t.Fatalf("unexpected descriptors: %+v", got)
	}
}

func TestLoadDescriptorsMissingFile(t *testing.T) {
	_, st := LoadDescriptors(filepath.Join(t.TempDir(), "missing.yaml"))
	if st != status.IO {
		t.Fatalf("status = %v, want IO", st)
	}
}
