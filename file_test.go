package binlogrouter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocalFileAppendAndRotate(t *testing.T) {
	dir := t.TempDir()

	f, err := NewLocalFile(dir, "mysql-bin.000001")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Append([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := f.Flush(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "mysql-bin.000001"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("file contents = %q, want hello", data)
	}

	if err := f.Rotate("mysql-bin.000002", 4); err != nil {
		t.Fatal(err)
	}
	if err := f.Append([]byte("world")); err != nil {
		t.Fatal(err)
	}
	if err := f.Flush(); err != nil {
		t.Fatal(err)
	}

	data2, err := os.ReadFile(filepath.Join(dir, "mysql-bin.000002"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data2) != "world" {
		t.Fatalf("rotated file contents = %q, want world", data2)
	}

	// original file untouched by the rotation.
	data, err = os.ReadFile(filepath.Join(dir, "mysql-bin.000001"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("original file contents changed: %q", data)
	}
}
