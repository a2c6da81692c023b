package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestReport(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "source.html")
	if err := os.WriteFile(src, []byte("<p>a</p>"), 0644); err != nil {
		t.Fatal(err)
	}
	work := filepath.Join(dir, "work")
	if err := os.MkdirAll(filepath.Join(work, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(work, "sub", "debug.txt"), []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	r.Store("source", src)
	r.StoreData("config/config.yaml", []byte("version: 1\n"))
	r.StoreData("config/config.yaml", []byte("version: 2\n"))
	if err := r.StoreCopy("work", work); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// copy is taken at the time of a call
	if err := os.WriteFile(filepath.Join(work, "sub", "debug.txt"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	r.Store("absent", filepath.Join(dir, "nothing-here"))

	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	arc, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("report is not a zip archive: %v", err)
	}
	defer arc.Close()

	files := make(map[string]string)
	var names []string
	for _, f := range arc.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = string(data)
		names = append(names, f.Name)
	}

	for _, want := range []string{"MANIFEST", "source", "config/config.yaml", "work/sub/debug.txt"} {
		if _, ok := files[want]; !ok {
			t.Errorf("report has no %q, has %v", want, names)
		}
	}
	if files["work/sub/debug.txt"] != "test" {
		t.Errorf("copied file = %q, want original content", files["work/sub/debug.txt"])
	}
	if !slices.ContainsFunc(names, func(n string) bool { return strings.HasPrefix(n, "config/config.yaml-") }) {
		t.Errorf("repeated data was not versioned: %v", names)
	}
	if !strings.Contains(files["MANIFEST"], "absent") {
		t.Error("MANIFEST does not list absent entry")
	}
	if _, ok := files["absent"]; ok {
		t.Error("absent file ended up in report")
	}
}

func TestReportNil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.StoreCopy("a", "b"); err != nil {
		t.Errorf("StoreCopy() on nil report = %v", err)
	}
	if r.Name() != "" {
		t.Error("Name() of nil report is not empty")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report = %v", err)
	}
}
