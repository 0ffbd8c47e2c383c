package logforge

import (
	"github.com/logforge/logforge/internal/archive"
	"github.com/logforge/logforge/internal/config"
	"github.com/logforge/logforge/internal/extract"
)

// extractConfigFromResources translates the config file's resource caps
// into the extract pipeline's own Config/Quota shape.
func extractConfigFromResources(r config.ResourceLimits) extract.Config {
	return extract.Config{
		MaxDepth:         r.MaxDepth,
		MaxParallelFiles: int64(r.MaxParallelFile),
		Quota: archive.Quota{
			MaxFileSize:           r.MaxFileSize,
			MaxTotalUncompressed:  r.MaxTotalSize,
			MaxEntriesPerArchive:  r.MaxEntries,
			CompressionRatioLimit: float64(r.MaxExpandRatio),
		},
	}
}
