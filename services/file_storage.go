package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/utils"

	"github.com/google/uuid"
)

// FileStorageManager handles secure file storage for uploads awaiting
// extraction. Files live under <FileStorageDir>/documents/<userID>/ and are
// removed once their text has been extracted.
type FileStorageManager struct {
	config    *config.Config
	uploadDir string
	tempDir   string
}

// NewFileStorageManager creates a new file storage manager
func NewFileStorageManager(cfg *config.Config) *FileStorageManager {
	baseDir := cfg.FileStorageDir
	if baseDir == "" {
		baseDir = "./uploads"
	}

	uploadDir := filepath.Join(baseDir, "documents")
	tempDir := filepath.Join(baseDir, "temp")

	// Create directories
	os.MkdirAll(uploadDir, 0755)
	os.MkdirAll(tempDir, 0755)

	return &FileStorageManager{
		config:    cfg,
		uploadDir: uploadDir,
		tempDir:   tempDir,
	}
}

// SecureFileInfo contains information about a securely stored file
type SecureFileInfo struct {
	Path       string
	SecureName string
	Hash       string
	Size       int64
}

// SecureStore streams an upload to disk under a per-user directory,
// computing its sha256 along the way. The bytes land in a temp file first
// and are renamed into place, so an interrupted upload never leaves a
// half-written file in the upload tree.
func (sm *FileStorageManager) SecureStore(file multipart.File, header *multipart.FileHeader, userID string) (*SecureFileInfo, error) {
	// Reset file reader position
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to reset file position: %w", err)
	}

	secureName := sm.generateSecureFilename(header.Filename)

	userDir := filepath.Join(sm.uploadDir, userID)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	filePath := filepath.Join(userDir, secureName)

	tempPath := filepath.Join(sm.tempDir, uuid.NewString()+".tmp")
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	// Stream to the temp file and the hash in one pass
	hasher := sha256.New()
	multiWriter := io.MultiWriter(tempFile, hasher)

	bytesWritten, err := io.Copy(multiWriter, file)
	if err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if bytesWritten == 0 {
		os.Remove(tempPath)
		return nil, fmt.Errorf("file is empty")
	}

	// Move to final location
	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to move file to final location: %w", err)
	}

	fileHash := hex.EncodeToString(hasher.Sum(nil))

	return &SecureFileInfo{
		Path:       filePath,
		SecureName: secureName,
		Hash:       fileHash,
		Size:       bytesWritten,
	}, nil
}

// ReadHead returns up to n bytes from the start of a stored file, for
// format sniffing without loading the whole file.
func (sm *FileStorageManager) ReadHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return buf[:read], nil
}

// ReadStoredFile loads a stored file fully into memory for extraction.
func (sm *FileStorageManager) ReadStoredFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return content, nil
}

// ValidatePDF runs structural checks on a stored PDF before it is accepted:
// magic bytes, EOF markers, and basic object structure. Catches truncated
// or corrupted files before they reach the extraction queue.
func (sm *FileStorageManager) ValidatePDF(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file for validation: %w", err)
	}
	defer file.Close()

	// Read first 1024 bytes for header validation
	header := make([]byte, 1024)
	n, err := file.Read(header)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	if n < 4 {
		return fmt.Errorf("file is too small or empty")
	}

	if !strings.HasPrefix(string(header[:n]), "%PDF-") {
		return fmt.Errorf("invalid PDF file: missing PDF magic bytes")
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	// Check for PDF EOF markers at the end (read last 2KB)
	if fileInfo.Size() > 2048 {
		trailer := make([]byte, 2048)
		file.Seek(fileInfo.Size()-2048, io.SeekStart)
		if _, err := file.Read(trailer); err != nil {
			return fmt.Errorf("failed to read PDF trailer: %w", err)
		}

		trailerStr := string(trailer)
		if !strings.Contains(trailerStr, "%%EOF") && !strings.Contains(trailerStr, "startxref") {
			return fmt.Errorf("invalid or corrupted PDF: missing EOF markers")
		}
	}

	// Check for basic PDF structure indicators
	headerStr := string(header[:n])
	if !strings.Contains(headerStr, "obj") && !strings.Contains(headerStr, "xref") && !strings.Contains(headerStr, "trailer") {
		return fmt.Errorf("invalid PDF structure: file may be corrupted or not a valid PDF")
	}

	// Flag suspicious embedded content; the file is still accepted since the
	// extractors only read text, never execute anything.
	suspiciousPatterns := []string{
		"/JavaScript",
		"/JS",
		"/EmbeddedFile",
		"/Launch",
	}

	lowerHeader := strings.ToLower(headerStr)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lowerHeader, strings.ToLower(pattern)) {
			logger.Warn("potentially suspicious PDF content detected", "pattern", pattern, "path", filePath)
		}
	}

	return nil
}

// Cleanup removes a file from storage
func (sm *FileStorageManager) Cleanup(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to cleanup stored file", "path", filePath, "error", err)
	}
}

// PruneOrphans walks the upload tree and removes files older than maxAge
// whose paths are not referenced by any document record. Temp files past
// maxAge are always removed. Returns the number of files deleted.
func (sm *FileStorageManager) PruneOrphans(referenced map[string]bool, maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	filepath.Walk(sm.uploadDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if info.ModTime().After(cutoff) || referenced[path] {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Warn("failed to prune orphaned file", "path", path, "error", rmErr)
			return nil
		}
		removed++
		return nil
	})

	filepath.Walk(sm.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return nil
		}
		removed++
		return nil
	})

	return removed
}

// generateSecureFilename creates a secure filename
func (sm *FileStorageManager) generateSecureFilename(originalName string) string {
	// Random prefix keeps same-named uploads from colliding
	randomPrefix, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		randomPrefix = uuid.NewString()[:16]
	}

	// Create timestamp
	timestamp := time.Now().Format("20060102_150405")

	// Clean original name
	ext := filepath.Ext(originalName)
	baseName := strings.TrimSuffix(originalName, ext)

	// Remove dangerous characters and limit length
	safeName := strings.ReplaceAll(baseName, " ", "_")
	safeName = strings.ReplaceAll(safeName, "..", "")
	if len(safeName) > 50 {
		safeName = safeName[:50]
	}

	return fmt.Sprintf("%s_%s_%s%s", timestamp, randomPrefix, safeName, ext)
}
