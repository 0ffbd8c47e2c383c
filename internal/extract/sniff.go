package extract

import (
	"bytes"

	"github.com/logforge/logforge/pkg/util"
)

// sniffSampleSize is the amount of a file's leading bytes inspected to
// classify it as binary or text, mirroring the magic-byte sniff used
// ahead of full content processing elsewhere in the corpus.
const sniffSampleSize = 512

// isTextContent decides whether content should be split into lines and
// offered to FTS/level/timestamp inference. Binary content still gets a
// CAS object and a file row (list_files/get_file_content keep working);
// it is only excluded from the line index and the inference heuristics.
func isTextContent(content []byte) bool {
	sample := content
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	return util.IsNormalString(sample)
}

// splitLines splits file content into lines for FTS indexing, dropping
// the record separator itself and tolerating a trailing line without a
// final newline.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	trimmed := bytes.TrimSuffix(content, []byte("\n"))
	parts := bytes.Split(trimmed, []byte("\n"))
	lines := make([]string, len(parts))
	for i, p := range parts {
		lines[i] = string(bytes.TrimSuffix(p, []byte("\r")))
	}
	return lines
}
