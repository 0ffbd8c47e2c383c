// Package pathsafe validates archive entry paths and extracted file paths
// before any write touches the file system. Every rule is applied
// exactly once per entry and once more after the path has been joined to
// the extraction root, so a traversal that survives normalization is still
// caught by the final prefix check.
package pathsafe

import (
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	appErrors "github.com/logforge/logforge/internal/errors"
)

// reservedWindowsNames are device names that cannot be used as a
// filename component when extracting on (or simulating) Windows.
var reservedWindowsNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

var forbiddenCharRE = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)

// ValidateEntry applies the traversal, absolute-path, reserved-name, and
// forbidden-character checks to a raw archive entry name, before it is
// joined to any extraction directory. It returns the sanitized,
// slash-normalized relative path on success.
func ValidateEntry(archiveVirtualPath, entry string) (string, error) {
	if entry == "" {
		return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
	}

	// Rule 1: reject absolute paths and drive-letter/UNC roots.
	cleaned := strings.ReplaceAll(entry, "\\", "/")
	if strings.HasPrefix(cleaned, "/") {
		return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
	}
	if len(cleaned) >= 2 && cleaned[1] == ':' {
		return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
	}
	if strings.HasPrefix(cleaned, "//") || strings.HasPrefix(cleaned, "\\\\") {
		return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
	}

	// Rule 3: null bytes / control characters.
	if strings.IndexFunc(cleaned, func(r rune) bool { return r < 0x20 }) >= 0 {
		return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
	}

	// Rule 2: normalize components, reject any ascent above base.
	parts := strings.Split(cleaned, "/")
	var depth int
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			depth--
			if depth < 0 {
				return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
			}
			out = out[:len(out)-1]
		default:
			depth++
			out = append(out, sanitizeComponent(p))
		}
	}
	if len(out) == 0 {
		return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
	}

	// Rule 3: reserved Windows device names, applied per component so a
	// deterministic extraction produces the same mapping on every OS.
	for _, c := range out {
		base := strings.ToUpper(c)
		if dot := strings.IndexByte(base, '.'); dot >= 0 {
			base = base[:dot]
		}
		if reservedWindowsNames[base] {
			return "", appErrors.PathUnsafe(archiveVirtualPath, entry, nil)
		}
	}

	return strings.Join(out, "/"), nil
}

// sanitizeComponent replaces characters forbidden on Windows with '_',
// keeping a deterministic 1:1 mapping so repeat extractions of the same
// archive produce identical virtual paths (rule 6).
func sanitizeComponent(c string) string {
	return forbiddenCharRE.ReplaceAllString(c, "_")
}

// ResolveExtractPath joins a validated relative path to root and applies
// rule 4 (Windows long-path prefix) and rule 5 (defense-in-depth prefix
// check against symlink escape). Call this after ValidateEntry, right
// before the write.
func ResolveExtractPath(root, relPath string) (string, error) {
	joined := filepath.Join(root, filepath.FromSlash(relPath))

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", appErrors.PathUnsafe(root, relPath, err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", appErrors.PathUnsafe(root, relPath, err)
	}

	if !isWithin(absRoot, absJoined) {
		return "", appErrors.PathUnsafe(root, relPath, nil)
	}

	if runtime.GOOS == "windows" {
		absJoined = withLongPathPrefix(absJoined)
	}

	return absJoined, nil
}

// isWithin reports whether candidate is root itself or a descendant of
// root, comparing cleaned, OS-separator paths component-wise rather than
// by naive string prefix (which would let "/root-evil" pass a "/root"
// check).
func isWithin(root, candidate string) bool {
	root = filepath.Clean(root)
	candidate = filepath.Clean(candidate)
	if root == candidate {
		return true
	}
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

const windowsLongPathThreshold = 260

func withLongPathPrefix(p string) string {
	if len(p) < windowsLongPathThreshold || strings.HasPrefix(p, `\\?\`) {
		return p
	}
	if strings.HasPrefix(p, `\\`) {
		return `\\?\UNC\` + strings.TrimPrefix(p, `\\`)
	}
	return `\\?\` + p
}

// VerifyFinalPath re-applies rule 5 after the file has actually been
// written (e.g. after following a directory symlink created earlier in
// the same archive), rejecting anything that escaped root via a path
// component resolved only at write time.
func VerifyFinalPath(root, finalPath string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return appErrors.PathUnsafe(root, finalPath, err)
	}
	absFinal, err := filepath.Abs(finalPath)
	if err != nil {
		return appErrors.PathUnsafe(root, finalPath, err)
	}
	if !isWithin(absRoot, absFinal) {
		return appErrors.PathUnsafe(root, finalPath, nil)
	}
	return nil
}
