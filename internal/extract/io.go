package extract

import (
	"bytes"
	"io"

	"github.com/logforge/logforge/internal/cas"
)

// teeReadAndPut streams r through store.Put while simultaneously
// buffering the same bytes, so the CAS write and the in-memory copy used
// for sniffing/line-splitting/FTS indexing cost one disk read instead of
// two. The whole file is buffered: entries extracted from an archive are
// bounded by the archive package's per-entry MaxFileSize quota, while
// plain files from an imported directory are read with no size cap.
func teeReadAndPut(store *cas.Store, r io.Reader) (content []byte, sum string, size int64, err error) {
	var buf bytes.Buffer
	tee := io.TeeReader(r, &buf)
	sum, size, err = store.Put(tee)
	if err != nil {
		return nil, "", 0, err
	}
	return buf.Bytes(), sum, size, nil
}
