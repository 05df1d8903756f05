package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRead_ResolvesStoragePrefix(t *testing.T) {
	root := t.TempDir()
	sessionDir := filepath.Join(root, "sessions", "s1")
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sessionDir, "clip.wav"), []byte("audio-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFilesystemStore(root)

	data, err := fs.Read(context.Background(), "/storage/sessions/s1/clip.wav")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("got %q, want audio-bytes", data)
	}
}

func TestRead_WithoutStoragePrefix(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "shot.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := NewFilesystemStore(root)

	data, err := fs.Read(context.Background(), "shot.png")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("got %q, want png", data)
	}
}

func TestRead_EmptyURL(t *testing.T) {
	fs := NewFilesystemStore(t.TempDir())

	if _, err := fs.Read(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestResolve_RejectsEscape(t *testing.T) {
	fs := NewFilesystemStore(t.TempDir())

	if _, err := fs.Resolve("/storage/../../etc/passwd"); err == nil {
		t.Fatal("expected error for path escaping root")
	}
}

func TestRead_MissingFile(t *testing.T) {
	fs := NewFilesystemStore(t.TempDir())

	if _, err := fs.Read(context.Background(), "/storage/nope.wav"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
