package services

import (
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"docqa-platform/internal/config"
)

func uploadServiceForTest() *DocumentService {
	return &DocumentService{
		config: &config.Config{
			MaxFileSize:       20 << 20,
			AllowedExtensions: []string{".pdf", ".docx", ".txt"},
		},
	}
}

func TestValidateUpload(t *testing.T) {
	svc := uploadServiceForTest()

	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{"valid pdf", "report.pdf", 1024, false},
		{"extension case ignored", "notes.DOCX", 2048, false},
		{"valid txt", "readme.txt", 10, false},
		{"oversized", "big.pdf", 21 << 20, true},
		{"empty file", "empty.pdf", 0, true},
		{"missing filename", "", 100, true},
		{"filename too long", strings.Repeat("a", 252) + ".pdf", 100, true},
		{"path traversal", "../../etc/passwd.pdf", 100, true},
		{"windows traversal", "..\\boot.pdf", 100, true},
		{"angle bracket", "a<b.pdf", 100, true},
		{"colon", "c:out.pdf", 100, true},
		{"null byte", "bad\x00.pdf", 100, true},
		{"disallowed extension", "script.exe", 100, true},
		{"no extension", "README", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := &multipart.FileHeader{Filename: tt.filename, Size: tt.size}
			err := svc.ValidateUpload(header)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.filename)
				}
				if !errors.Is(err, ErrInvalidFile) {
					t.Fatalf("error %v does not wrap ErrInvalidFile", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
