package metadata

import "github.com/bmatcuk/doublestar/v4"

// pathGlobMatch matches a virtual path against a doublestar glob
// (`**` for recursive descent), e.g. "logs/**/*.log".
func pathGlobMatch(glob, virtualPath string) (bool, error) {
	return doublestar.Match(glob, virtualPath)
}
