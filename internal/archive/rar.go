package archive

import (
	"io"

	"github.com/nwaples/rardecode/v2"
	"github.com/rs/zerolog/log"

	appErrors "github.com/logforge/logforge/internal/errors"
)

type rarHandler struct{}

func (rarHandler) CanHandle(path string) bool { return hasSuffixFold(path, ".rar") }
func (rarHandler) Format() string             { return "rar" }

// Extract uses the pure-Go rardecode/v2 reader (no cgo, no external
// binary dependency). Multi-volume RAR is out of scope: a missing next
// volume makes Next fail, which is logged and ends this archive's
// extraction with ArchiveCorrupt, the same as a truncated archive.
func (rarHandler) Extract(sourcePath, targetDir string, quota *Quota) (Summary, error) {
	rc, err := rardecode.OpenReader(sourcePath)
	if err != nil {
		return Summary{}, appErrors.ArchiveCorrupt(sourcePath, err)
	}
	defer rc.Close()

	var summary Summary
	var counters validateEntryCounters

	for {
		hdr, err := rc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A missing-next-volume error surfaces here the same way a
			// truncated archive would; multi-volume RAR is out of scope,
			// so it is treated as ArchiveCorrupt: the pipeline logs it,
			// does not descend into this archive, and continues with the
			// rest of the import rather than aborting the whole task.
			log.Warn().Err(err).Str("archive", sourcePath).Msg("rar extraction stopped (possible multi-volume archive)")
			return summary, appErrors.ArchiveCorrupt(sourcePath, err)
		}

		if hdr.IsDir {
			continue
		}

		if err := checkEntry(sourcePath, hdr.UnPackedSize, hdr.PackedSize, quota, &counters); err != nil {
			return summary, err
		}

		_, written, err := extractEntry(sourcePath, hdr.Name, targetDir, rc)
		if err != nil {
			if appErrors.Is(err, appErrors.KindPathUnsafe) {
				log.Warn().Err(err).Str("entry", hdr.Name).Str("archive", sourcePath).Msg("unsafe rar entry path, skipping")
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
