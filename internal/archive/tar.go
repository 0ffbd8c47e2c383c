package archive

import (
	"archive/tar"
	"io"
	"os"

	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/rs/zerolog/log"
)

type tarHandler struct{}

func (tarHandler) CanHandle(path string) bool {
	return hasSuffixFold(path, ".tar") && !hasSuffixFold(path, ".tar.gz", ".tgz")
}
func (tarHandler) Format() string { return "tar" }

func (h tarHandler) Extract(sourcePath, targetDir string, quota *Quota) (Summary, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return Summary{}, appErrors.ArchiveCorrupt(sourcePath, err)
	}
	defer f.Close()
	return extractTarStream(tar.NewReader(f), sourcePath, targetDir, quota)
}

// extractTarStream is shared by the plain .tar and .tar.gz handlers: tar
// entries carry no separate compressed size, so the per-entry
// compression-ratio check is skipped (compressedSize=0) and only the
// declared uncompressed size is checked before streaming. Non-regular
// entries (directories, symlinks, devices) are skipped by default.
func extractTarStream(tr *tar.Reader, sourcePath, targetDir string, quota *Quota) (Summary, error) {
	var summary Summary
	var counters validateEntryCounters

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, appErrors.ArchiveCorrupt(sourcePath, err)
		}

		if hdr.Typeflag != tar.TypeReg {
			summary.EntriesSkipped++
			continue
		}

		if err := checkEntry(sourcePath, hdr.Size, 0, quota, &counters); err != nil {
			return summary, err
		}

		_, written, err := extractEntry(sourcePath, hdr.Name, targetDir, tr)
		if err != nil {
			if appErrors.Is(err, appErrors.KindPathUnsafe) {
				log.Warn().Err(err).Str("entry", hdr.Name).Str("archive", sourcePath).Msg("unsafe tar entry path, skipping")
				summary.EntriesSkipped++
				continue
			}
			return summary, err
		}

		quota.MaxTotalUncompressed -= written
		summary.ExtractedFiles++
		summary.TotalUncompressedSize += written
	}

	return summary, nil
}
