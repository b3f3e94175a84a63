package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalStorage_PutGetDelete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "acc-1/templates/doc.pdf", strings.NewReader("pdf-bytes"), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ok, err := s.Exists(ctx, "acc-1/templates/doc.pdf")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true, nil", ok, err)
	}

	rc, err := s.Get(ctx, "acc-1/templates/doc.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "pdf-bytes" {
		t.Fatalf("Get returned %q, want %q", data, "pdf-bytes")
	}

	if err := s.Delete(ctx, "acc-1/templates/doc.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "acc-1/templates/doc.pdf"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("Get after Delete: err = %v, want ErrNotExist", err)
	}
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestLocalStorage_DeleteMissingIsNoop(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if err := s.Delete(context.Background(), "nope"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestLocalStorage_PathTraversalConfined(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	// Keys with traversal segments are cleaned relative to the base
	// directory, so writing and reading back stays inside it.
	if err := s.Put(ctx, "../../etc/passwd", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := s.Get(ctx, "etc/passwd")
	if err != nil {
		t.Fatalf("cleaned key not found inside base dir: %v", err)
	}
	rc.Close()
}
