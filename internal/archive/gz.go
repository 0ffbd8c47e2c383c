package archive

import (
	"compress/gzip"
	"io"
	"os"

	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/pathsafe"
)

type gzHandler struct{}

func (gzHandler) CanHandle(path string) bool {
	return hasSuffixFold(path, ".gz") && !hasSuffixFold(path, ".tar.gz", ".tgz")
}
func (gzHandler) Format() string { return "gz" }

// Extract handles the single-file gzip container. The gzip footer's
// ISIZE field is attacker-controlled and unreliable for a pre-read size
// check, so the uncompressed-size cap is enforced as bytes stream out
// rather than declared upfront: a LimitReader one byte past the cap lets
// the loop detect an overrun before any unbounded write happens.
func (gzHandler) Extract(sourcePath, targetDir string, quota *Quota) (Summary, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return Summary{}, appErrors.ArchiveCorrupt(sourcePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Summary{}, appErrors.ArchiveCorrupt(sourcePath, err)
	}
	defer gz.Close()

	limit := quota.MaxFileSize
	if quota.MaxTotalUncompressed < limit {
		limit = quota.MaxTotalUncompressed
	}
	limited := &io.LimitedReader{R: gz, N: limit + 1}

	innerName := baseNameWithoutSuffix(sourcePath, ".gz")
	relPath, err := pathsafe.ValidateEntry(sourcePath, innerName)
	if err != nil {
		return Summary{EntriesSkipped: 1}, nil
	}
	destPath, err := pathsafe.ResolveExtractPath(targetDir, relPath)
	if err != nil {
		return Summary{EntriesSkipped: 1}, nil
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Summary{}, appErrors.ArchiveCorrupt(sourcePath, err)
	}
	defer out.Close()

	buf := make([]byte, bufferSize)
	written, err := io.CopyBuffer(out, limited, buf)
	if err != nil {
		return Summary{}, appErrors.ArchiveCorrupt(sourcePath, err)
	}
	if written > limit {
		return Summary{}, appErrors.SecurityLimitExceeded(sourcePath, "file_size")
	}

	if err := pathsafe.VerifyFinalPath(targetDir, destPath); err != nil {
		return Summary{}, err
	}

	quota.MaxTotalUncompressed -= written
	return Summary{ExtractedFiles: 1, TotalUncompressedSize: written}, nil
}
