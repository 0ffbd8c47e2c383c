// Package archive streams ZIP, TAR, TAR.GZ, GZ, and RAR containers into a
// target directory under a shared resource budget, never loading a whole
// archive into memory.
package archive

import (
	"path/filepath"
	"strings"
)

// Quota tracks the resource caps shared across one extraction pass,
// possibly spanning several nested archives at increasing depth.
type Quota struct {
	MaxFileSize           int64 // per-entry uncompressed size cap
	MaxTotalUncompressed  int64 // remaining workspace quota, decremented as entries extract
	MaxEntriesPerArchive  int
	CompressionRatioLimit float64 // per-entry uncompressed:compressed cap, e.g. 100 for 100:1
}

// Summary reports the outcome of one archive's extraction.
type Summary struct {
	ExtractedFiles        int
	TotalUncompressedSize int64
	EntriesSkipped        int
}

// Handler is the common contract every archive format implements. Extract
// streams source into targetDir, enforcing quota per-entry and updating
// it as it goes; it never reads source fully into memory.
type Handler interface {
	CanHandle(path string) bool
	Format() string
	Extract(sourcePath, targetDir string, quota *Quota) (Summary, error)
}

// handlers is the registry consulted by Detect, checked in the listed
// order so ".tar.gz" is tried before the generic ".gz" handler.
var handlers = []Handler{
	zipHandler{},
	tarGzHandler{},
	tarHandler{},
	gzHandler{},
	rarHandler{},
}

// Detect returns the handler willing to process path, or nil if the file
// is not a recognized archive format.
func Detect(path string) Handler {
	for _, h := range handlers {
		if h.CanHandle(path) {
			return h
		}
	}
	return nil
}

func hasSuffixFold(path string, suffixes ...string) bool {
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func baseNameWithoutSuffix(path, suffix string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, suffix)
}
