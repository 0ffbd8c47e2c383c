package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"

	appErrors "github.com/logforge/logforge/internal/errors"
)

type tarGzHandler struct{}

func (tarGzHandler) CanHandle(path string) bool { return hasSuffixFold(path, ".tar.gz", ".tgz") }
func (tarGzHandler) Format() string             { return "tar.gz" }

func (h tarGzHandler) Extract(sourcePath, targetDir string, quota *Quota) (Summary, error) {
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

	return extractTarStream(tar.NewReader(gz), sourcePath, targetDir, quota)
}
