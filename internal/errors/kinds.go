package errors

import (
	"fmt"
	"net/http"
)

// PathUnsafe reports an archive entry or extracted path that failed a
// internal/pathsafe rule. Carries the offending (archive, entry) pair so
// the extraction pipeline can log-and-skip without aborting the archive.
func PathUnsafe(archiveVirtualPath, entry string, cause error) *AppError {
	return New(KindPathUnsafe, fmt.Sprintf("unsafe path %q in %q", entry, archiveVirtualPath), cause, http.StatusBadRequest).
		WithField("archive", archiveVirtualPath).WithField("entry", entry).WithStack()
}

func ArchiveCorrupt(virtualPath string, cause error) *AppError {
	return New(KindArchiveCorrupt, fmt.Sprintf("archive corrupt: %s", virtualPath), cause, http.StatusUnprocessableEntity).
		WithField("archive", virtualPath).WithStack()
}

func ArchiveUnsupported(virtualPath, format string) *AppError {
	return New(KindArchiveUnsupported, fmt.Sprintf("unsupported archive format %q for %s", format, virtualPath), nil, http.StatusBadRequest).
		WithField("archive", virtualPath).WithField("format", format)
}

// SecurityLimitExceeded reports a resource cap breach (size/count/ratio/
// depth) during extraction. reason identifies which counter tripped.
func SecurityLimitExceeded(virtualPath, reason string) *AppError {
	return New(KindSecurityLimitExceeded, fmt.Sprintf("security limit exceeded (%s): %s", reason, virtualPath), nil, http.StatusRequestEntityTooLarge).
		WithField("archive", virtualPath).WithField("reason", reason).WithStack()
}

func CasIo(op string, cause error) *AppError {
	return New(KindCasIo, fmt.Sprintf("cas io failed: %s", op), cause, http.StatusInternalServerError).WithStack()
}

func MetadataIo(op string, cause error) *AppError {
	return New(KindMetadataIo, fmt.Sprintf("metadata io failed: %s", op), cause, http.StatusInternalServerError).WithStack()
}

// CasIntegrity reports that the bytes read back for a hash do not hash to
// that key (should never happen given I2; treated as data corruption).
func CasIntegrity(sha256 string) *AppError {
	return New(KindCasIntegrity, fmt.Sprintf("stored object %s failed integrity check", sha256), nil, http.StatusInternalServerError).WithStack()
}

func QueryInvalid(reason string) *AppError {
	return New(KindQueryInvalid, reason, nil, http.StatusBadRequest)
}

func RegexUnsafe(pattern, reason string) *AppError {
	return New(KindRegexUnsafe, fmt.Sprintf("unsafe regex (%s): %s", reason, pattern), nil, http.StatusBadRequest).
		WithField("pattern", pattern)
}

func TaskCanceled(taskID string) *AppError {
	return New(KindTaskCanceled, fmt.Sprintf("task %s canceled", taskID), nil, http.StatusConflict).
		WithField("task_id", taskID)
}

func TaskManagerUnresponsive(op string) *AppError {
	return New(KindTaskManagerUnresponsive, fmt.Sprintf("task manager did not respond to %s", op), nil, http.StatusServiceUnavailable)
}

func WorkspaceNotFound(workspaceID string) *AppError {
	return New(KindWorkspaceNotFound, fmt.Sprintf("workspace not found: %s", workspaceID), nil, http.StatusNotFound).
		WithField("workspace_id", workspaceID)
}

func Timeout(op string) *AppError {
	return New(KindTimeout, fmt.Sprintf("operation timed out: %s", op), nil, http.StatusGatewayTimeout)
}

func InvalidArg(name, reason string) *AppError {
	msg := fmt.Sprintf("invalid argument: %s", name)
	if reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, reason)
	}
	return New(KindInvalidArg, msg, nil, http.StatusBadRequest)
}

func Internal(message string, cause error) *AppError {
	return New(KindInternal, message, cause, http.StatusInternalServerError).WithStack()
}
