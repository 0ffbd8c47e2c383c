package util

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/rs/zerolog/log"
)

// FindFilesWithPattern walks directory (recursively if recursive is set)
// and returns every file whose base name matches pattern.
func FindFilesWithPattern(directory string, pattern string, recursive bool) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	dirInfo, err := os.Stat(directory)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory %q: %w", directory, err)
	}
	if !dirInfo.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", directory)
	}

	var matched []string
	fsys := os.DirFS(directory)

	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != "." {
				return fs.SkipDir
			}
			return nil
		}
		if re.MatchString(d.Name()) {
			matched = append(matched, filepath.Join(directory, path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %q: %w", directory, err)
	}

	return matched, nil
}

// DefaultRootDir returns the platform-conventional home for logforge's
// workspace root when the user hasn't configured one explicitly.
func DefaultRootDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.ExpandEnv("${USERPROFILE}"), "Documents", "logforge")
	case "darwin":
		return filepath.Join(os.ExpandEnv("${HOME}"), "Documents", "logforge")
	default:
		return filepath.Join(os.ExpandEnv("${HOME}"), ".logforge")
	}
}

func GetDirSize(dir string) string {
	var size int64
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return ByteCountSI(size)
}

func ByteCountSI(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}

// PrepareDir ensures that the specified directory path exists.
func PrepareDir(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
		} else {
			return err
		}
	} else if !stat.IsDir() {
		log.Debug().Msgf("%s is not a directory", path)
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
