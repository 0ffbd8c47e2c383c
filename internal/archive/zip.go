package archive

import (
	"archive/zip"

	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/rs/zerolog/log"
)

type zipHandler struct{}

func (zipHandler) CanHandle(path string) bool { return hasSuffixFold(path, ".zip") }
func (zipHandler) Format() string             { return "zip" }

// Extract iterates the central directory (archive/zip already reads it
// eagerly on Open, giving every entry's declared sizes before any bytes
// are decompressed) and streams each entry through checkEntry/extractEntry.
func (zipHandler) Extract(sourcePath, targetDir string, quota *Quota) (Summary, error) {
	r, err := zip.OpenReader(sourcePath)
	if err != nil {
		return Summary{}, appErrors.ArchiveCorrupt(sourcePath, err)
	}
	defer r.Close()

	var summary Summary
	var counters validateEntryCounters

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		uncompressed := int64(f.UncompressedSize64)
		compressed := int64(f.CompressedSize64)
		if err := checkEntry(sourcePath, uncompressed, compressed, quota, &counters); err != nil {
			return summary, err
		}

		rc, err := f.Open()
		if err != nil {
			log.Warn().Err(err).Str("entry", f.Name).Str("archive", sourcePath).Msg("zip entry open failed, skipping")
			summary.EntriesSkipped++
			continue
		}

		_, written, err := extractEntry(sourcePath, f.Name, targetDir, rc)
		rc.Close()
		if err != nil {
			if appErrors.Is(err, appErrors.KindPathUnsafe) {
				log.Warn().Err(err).Str("entry", f.Name).Str("archive", sourcePath).Msg("unsafe zip entry path, skipping")
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
