package workspace

import (
	"io"

	appErrors "github.com/logforge/logforge/internal/errors"
)

// GetFileContent reads sha256's stored object from workspaceID's CAS,
// optionally restricted to a byte range. length <= 0 means "to EOF".
func (o *Orchestrator) GetFileContent(workspaceID, sha256 string, offset, length int64) ([]byte, error) {
	w, err := o.lookup(workspaceID)
	if err != nil {
		return nil, err
	}

	rc, err := w.cas.Open(sha256)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if offset > 0 {
		if _, err := io.CopyN(io.Discard, rc, offset); err != nil {
			return nil, appErrors.CasIo("seek", err)
		}
	}
	if length <= 0 {
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, appErrors.CasIo("read", err)
		}
		return data, nil
	}
	data := make([]byte, length)
	n, err := io.ReadFull(rc, data)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, appErrors.CasIo("read", err)
	}
	return data[:n], nil
}
