package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxUploadBytes = 5 << 20

func EnsureUploadDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveImage stores an uploaded image under a fresh UUID name, keeping only the
// original extension. Returns the stored filename and its public URL.
func SaveImage(dir, originalName, contentType string, body io.Reader) (string, string, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", "", ErrBadRequest("Dozvoljene su samo slike")
	}
	targetDir, err := EnsureUploadDir(dir)
	if err != nil {
		return "", "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
	default:
		ext = ""
	}
	storedName := uuid.NewString() + ext
	targetPath := filepath.Join(targetDir, storedName)

	file, err := os.Create(targetPath)
	if err != nil {
		return "", "", err
	}
	size, err := io.Copy(file, io.LimitReader(body, MaxUploadBytes+1))
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return "", "", err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return "", "", ErrBadRequest("Fajl je prazan")
	}
	if size > MaxUploadBytes {
		_ = os.Remove(targetPath)
		return "", "", ErrBadRequest("Fajl je prevelik (maksimum 5MB)")
	}
	return storedName, BuildFileURL(storedName), nil
}

func BuildFileURL(filename string) string {
	return "/api/files/" + filename
}

// ResolveUpload maps a requested filename to a path inside dir, rejecting
// anything that would escape it.
func ResolveUpload(dir, filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", ErrNotFound("Fajl nije pronađen")
	}
	path := filepath.Join(dir, filepath.Base(filename))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound("Fajl nije pronađen")
	}
	return path, nil
}
