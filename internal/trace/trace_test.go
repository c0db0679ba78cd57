package trace

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

func TestRecordCallNumbering(t *testing.T) {
	tracer, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p1, err := tracer.RecordCall("<p>a</p>", map[string]string{"text": "a"}, nil)
	if err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	p2, err := tracer.RecordCall("<p>b</p>", map[string]string{"text": "b"}, []string{"m"})
	if err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	if p1 != "0001" || p2 != "0002" {
		t.Errorf("prefixes = %q, %q, want 0001, 0002", p1, p2)
	}

	for _, name := range []string{"0001.pml", "0001.result.json", "0002.pml", "0002.result.json", "0002.messages.json"} {
		if _, err := os.Stat(filepath.Join(tracer.Dir(), name)); err != nil {
			t.Errorf("missing trace file %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(tracer.Dir(), "0001.messages.json")); err == nil {
		t.Error("0001.messages.json should not exist for a nil messages payload")
	}

	data, err := os.ReadFile(filepath.Join(tracer.Dir(), "0001.pml"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "<p>a</p>" {
		t.Errorf("source = %q", data)
	}
}

func TestArtifact(t *testing.T) {
	tracer, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := tracer.Artifact("response.txt", []byte("x")); err == nil {
		t.Error("Artifact before any call should fail")
	}

	if _, err := tracer.RecordCall("<p>a</p>", nil, nil); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	path, err := tracer.Artifact("response.txt", []byte("answer"))
	if err != nil {
		t.Fatalf("Artifact failed: %v", err)
	}
	if filepath.Base(path) != "0001.response.txt" {
		t.Errorf("artifact path = %q", path)
	}
}

func TestOpenContinuesNumbering(t *testing.T) {
	base := t.TempDir()
	first, err := New(base)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := first.RecordCall("<p>a</p>", nil, nil); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}

	reopened, err := Open(first.Dir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	p, err := reopened.RecordCall("<p>b</p>", nil, nil)
	if err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}
	if p != "0002" {
		t.Errorf("prefix = %q, want 0002", p)
	}
}

func TestStoreMediaDeduplicates(t *testing.T) {
	tracer, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	h1, err := tracer.StoreMedia([]byte("payload"))
	if err != nil {
		t.Fatalf("StoreMedia failed: %v", err)
	}
	h2, err := tracer.StoreMedia([]byte("payload"))
	if err != nil {
		t.Fatalf("StoreMedia failed: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hashes differ: %q vs %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if _, err := os.Stat(filepath.Join(tracer.Dir(), "media", h1[:2], h1)); err != nil {
		t.Errorf("blob missing: %v", err)
	}
}

func TestExportArchive(t *testing.T) {
	tracer, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := tracer.RecordCall("<p>a</p>", nil, nil); err != nil {
		t.Fatalf("RecordCall failed: %v", err)
	}

	var buf bytes.Buffer
	if err := tracer.ExportArchive(&buf); err != nil {
		t.Fatalf("ExportArchive failed: %v", err)
	}

	xzr, err := xz.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("xz.NewReader failed: %v", err)
	}
	tr := tar.NewReader(xzr)
	names := map[string]bool{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read failed: %v", err)
		}
		names[hdr.Name] = true
	}
	if !names["0001.pml"] || !names["0001.result.json"] {
		t.Errorf("archive entries = %v", names)
	}
}
