package archive

import (
	"io"
	"os"
	"path/filepath"

	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/pathsafe"
)

// bufferSize is the streaming buffer used when copying archive entry
// bodies; also the unit of in-flight work a cancellation poll can be
// late by.
const bufferSize = 64 * 1024

// validateEntryCounters tracks the running totals a handler updates per
// entry and checks against Quota resource-cap thresholds.
type validateEntryCounters struct {
	entryCount int
}

// checkEntry validates one archive entry's declared size against quota
// before any bytes are read, and enforces the per-entry compression
// ratio limit when compressedSize is known (0 means unknown/streamed,
// e.g. bare gzip).
func checkEntry(virtualPath string, uncompressedSize, compressedSize int64, quota *Quota, counters *validateEntryCounters) error {
	counters.entryCount++
	if counters.entryCount > quota.MaxEntriesPerArchive {
		return appErrors.SecurityLimitExceeded(virtualPath, "entry_count")
	}
	if uncompressedSize > quota.MaxFileSize {
		return appErrors.SecurityLimitExceeded(virtualPath, "file_size")
	}
	if uncompressedSize > quota.MaxTotalUncompressed {
		return appErrors.SecurityLimitExceeded(virtualPath, "total_size")
	}
	if compressedSize > 0 && quota.CompressionRatioLimit > 0 {
		ratio := float64(uncompressedSize) / float64(compressedSize)
		if ratio > quota.CompressionRatioLimit {
			return appErrors.SecurityLimitExceeded(virtualPath, "compression_ratio")
		}
	}
	return nil
}

// extractEntry validates the entry's path, resolves it against targetDir,
// streams r into the file, and verifies the final path did not escape
// targetDir. It applies no length cap of its own: the copy ends where r
// ends, so the bound on bytes written is whatever the format reader
// passed in as r enforces for the entry. Returns the sanitized virtual
// path and bytes written, or an error; callers skip PathUnsafe errors
// and continue with the next entry.
func extractEntry(archiveVirtualPath, rawEntryName, targetDir string, r io.Reader) (relPath string, written int64, err error) {
	relPath, err = pathsafe.ValidateEntry(archiveVirtualPath, rawEntryName)
	if err != nil {
		return "", 0, err
	}

	destPath, err := pathsafe.ResolveExtractPath(targetDir, relPath)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", 0, appErrors.ArchiveCorrupt(archiveVirtualPath, err)
	}

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, appErrors.ArchiveCorrupt(archiveVirtualPath, err)
	}
	defer f.Close()

	buf := make([]byte, bufferSize)
	n, err := io.CopyBuffer(f, r, buf)
	if err != nil {
		return "", 0, appErrors.ArchiveCorrupt(archiveVirtualPath, err)
	}

	if err := pathsafe.VerifyFinalPath(targetDir, destPath); err != nil {
		return "", 0, err
	}

	return relPath, n, nil
}
