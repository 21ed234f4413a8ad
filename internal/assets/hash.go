package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

// HashFile computes the SHA-256 content hash of the file at path, streaming
// from disk so the builder stays within bounded memory on large PDFs.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the SHA-256 content hash of an in-memory blob, used
// for rewritten Markdown that no longer matches the file on disk.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// WritePathFor returns the static-tree path for a content-hashed asset of
// the given kind (pdf, md, images) with the given extension.
func WritePathFor(kind, hash, ext string) string {
	if ext == "" {
		return "/" + kind + "/" + hash
	}
	return "/" + kind + "/" + hash + "." + ext
}

// TranslationPathFor returns the static-tree path for a translated Markdown
// asset under its language subdirectory.
func TranslationPathFor(lang, hash string) string {
	return "/md_translate/" + lang + "/" + hash + ".md"
}

// WriteContentAddressed copies srcPath into exportDir at the canonical
// content-hashed location for kind, skipping the write when the file
// already exists: content-hash addressing guarantees the existing bytes
// are already correct.
func WriteContentAddressed(exportDir, kind, hash, ext, srcPath string) (string, error) {
	relPath := WritePathFor(kind, hash, ext)
	destPath := filepath.Join(exportDir, filepath.FromSlash(relPath))

	if _, err := os.Stat(destPath); err == nil {
		return relPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return relPath, nil
}

// WriteBytesContentAddressed writes in-memory data to its content-hashed
// location, used for Markdown rewritten to reference local image paths.
func WriteBytesContentAddressed(exportDir, kind, hash, ext string, data []byte) (string, error) {
	relPath := WritePathFor(kind, hash, ext)
	destPath := filepath.Join(exportDir, filepath.FromSlash(relPath))

	if _, err := os.Stat(destPath); err == nil {
		return relPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	return relPath, os.WriteFile(destPath, data, 0o644)
}
