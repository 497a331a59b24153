package services

import (
	"crypto/sha256"
	"encoding/hex"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docqa-platform/internal/config"
)

func storageForTest(t *testing.T) *FileStorageManager {
	t.Helper()
	return NewFileStorageManager(&config.Config{FileStorageDir: t.TempDir()})
}

func openUpload(t *testing.T, name, content string) (*os.File, *multipart.FileHeader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open input: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, &multipart.FileHeader{Filename: name, Size: int64(len(content))}
}

func TestSecureStore(t *testing.T) {
	sm := storageForTest(t)
	content := "%PDF-1.4 pretend document body"
	file, header := openUpload(t, "quarterly report.pdf", content)

	info, err := sm.SecureStore(file, header, "user-1")
	if err != nil {
		t.Fatalf("SecureStore: %v", err)
	}

	if info.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", info.Size, len(content))
	}

	sum := sha256.Sum256([]byte(content))
	if info.Hash != hex.EncodeToString(sum[:]) {
		t.Errorf("hash mismatch: %s", info.Hash)
	}

	stored, err := os.ReadFile(info.Path)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(stored) != content {
		t.Error("stored bytes differ from upload")
	}

	if !strings.Contains(info.Path, filepath.Join("documents", "user-1")) {
		t.Errorf("file not under per-user directory: %s", info.Path)
	}
	if !strings.HasSuffix(info.SecureName, ".pdf") {
		t.Errorf("extension not preserved: %s", info.SecureName)
	}

	// Temp directory must be empty after the rename
	entries, err := os.ReadDir(sm.tempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not empty after store: %d entries", len(entries))
	}
}

func TestSecureStoreRejectsEmptyFile(t *testing.T) {
	sm := storageForTest(t)
	file, header := openUpload(t, "empty.pdf", "")

	if _, err := sm.SecureStore(file, header, "user-1"); err == nil {
		t.Fatal("expected error for empty upload")
	}
}

func TestGenerateSecureFilename(t *testing.T) {
	sm := storageForTest(t)

	tests := []struct {
		name       string
		original   string
		wantSuffix string
	}{
		{"spaces replaced", "my report.pdf", "_my_report.pdf"},
		{"dot dot stripped", "a..b.pdf", "_ab.pdf"},
		{"long name capped", strings.Repeat("a", 60) + ".txt", "_" + strings.Repeat("a", 50) + ".txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sm.generateSecureFilename(tt.original)
			if !strings.HasSuffix(got, tt.wantSuffix) {
				t.Errorf("generateSecureFilename(%q) = %q, want suffix %q", tt.original, got, tt.wantSuffix)
			}
		})
	}

	// Two calls must never collide even within the same second
	if sm.generateSecureFilename("same.pdf") == sm.generateSecureFilename("same.pdf") {
		t.Error("secure filenames collide")
	}
}

func TestValidatePDF(t *testing.T) {
	sm := storageForTest(t)
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	valid := "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\nstartxref\n%%EOF"
	largeValid := "%PDF-1.4\n1 0 obj\n<< >>\nendobj\n" + strings.Repeat("A", 3000) + "\nstartxref\n123\n%%EOF"
	largeTruncated := "%PDF-1.4\n1 0 obj\n<< >>\nendobj\n" + strings.Repeat("A", 3000)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid small pdf", write("ok.pdf", valid), false},
		{"valid large pdf", write("big.pdf", largeValid), false},
		{"plain text", write("text.pdf", "hello world, definitely not a pdf"), true},
		{"too small", write("tiny.pdf", "%P"), true},
		{"magic only, no structure", write("hollow.pdf", "%PDF-1.4\njust some words"), true},
		{"truncated large pdf", write("cut.pdf", largeTruncated), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidatePDF(tt.path)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReadHead(t *testing.T) {
	sm := storageForTest(t)
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("abcdefgh"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	head, err := sm.ReadHead(path, 4)
	if err != nil {
		t.Fatalf("ReadHead: %v", err)
	}
	if string(head) != "abcd" {
		t.Errorf("head = %q, want %q", head, "abcd")
	}

	// Requesting more than the file holds returns what exists
	all, err := sm.ReadHead(path, 100)
	if err != nil {
		t.Fatalf("ReadHead past EOF: %v", err)
	}
	if string(all) != "abcdefgh" {
		t.Errorf("head = %q, want full content", all)
	}
}

func TestCleanup(t *testing.T) {
	sm := storageForTest(t)
	path := filepath.Join(t.TempDir(), "gone.pdf")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	sm.Cleanup(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still present after cleanup")
	}

	// Missing files and empty paths are fine
	sm.Cleanup(path)
	sm.Cleanup("")
}

func TestPruneOrphans(t *testing.T) {
	sm := storageForTest(t)
	userDir := filepath.Join(sm.uploadDir, "user-1")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	old := time.Now().Add(-2 * time.Hour)
	mkOld := func(path string) {
		if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	referencedPath := filepath.Join(userDir, "kept.pdf")
	orphanPath := filepath.Join(userDir, "orphan.pdf")
	freshPath := filepath.Join(userDir, "fresh.pdf")
	tempPath := filepath.Join(sm.tempDir, "stale.tmp")

	mkOld(referencedPath)
	mkOld(orphanPath)
	mkOld(tempPath)
	if err := os.WriteFile(freshPath, []byte("x"), 0600); err != nil {
		t.Fatalf("write fresh: %v", err)
	}

	removed := sm.PruneOrphans(map[string]bool{referencedPath: true}, time.Hour)
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	for _, path := range []string{referencedPath, freshPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s should survive pruning: %v", path, err)
		}
	}
	for _, path := range []string{orphanPath, tempPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s should have been pruned", path)
		}
	}
}
