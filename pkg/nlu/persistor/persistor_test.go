package persistor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteDir(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(src, "metadata.json"), []byte(`{"language":"en"}`), 0o644)
	os.WriteFile(filepath.Join(src, "sub", "tokenizer.yaml"), []byte("stopwords: []\n"), 0o644)

	files, err := ReadDir(src)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(files) != 2 || files[0].Path != "metadata.json" || files[1].Path != "sub/tokenizer.yaml" {
		t.Fatalf("files = %+v", files)
	}

	dst := t.TempDir()
	if err := WriteDir(dst, files); err != nil {
		t.Fatalf("WriteDir: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dst, "sub", "tokenizer.yaml"))
	if err != nil || string(data) != "stopwords: []\n" {
		t.Errorf("restored file = %q, %v", data, err)
	}
}

func TestWriteDirRejectsEscapes(t *testing.T) {
	dst := t.TempDir()
	err := WriteDir(dst, []File{{Path: "../evil", Data: []byte("x")}})
	if err == nil {
		t.Fatal("expected an error for a path outside the target")
	}
}

func TestReadDirMissing(t *testing.T) {
	if _, err := ReadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
