package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	appErrors "github.com/logforge/logforge/internal/errors"
)

func defaultQuota() *Quota {
	return &Quota{
		MaxFileSize:           100 * 1024 * 1024,
		MaxTotalUncompressed:  10 * 1024 * 1024 * 1024,
		MaxEntriesPerArchive:  1000,
		CompressionRatioLimit: 100,
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create entry: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("zip write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
}

func TestDetectByExtension(t *testing.T) {
	cases := map[string]string{
		"a.zip":    "zip",
		"a.tar":    "tar",
		"a.tar.gz": "tar.gz",
		"a.tgz":    "tar.gz",
		"a.gz":     "gz",
		"a.rar":    "rar",
		"a.txt":    "",
		"a.log":    "",
	}
	for name, want := range cases {
		h := Detect(name)
		if want == "" {
			if h != nil {
				t.Fatalf("%s: expected no handler, got %s", name, h.Format())
			}
			continue
		}
		if h == nil || h.Format() != want {
			t.Fatalf("%s: expected handler %s, got %v", name, want, h)
		}
	}
}

func TestZipExtract(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "a.zip")
	writeZip(t, zipPath, map[string]string{
		"logs/app.log":  "line one\nline two\n",
		"readme.txt":    "hello",
		"sub/dir/x.log": "x",
	})

	target := t.TempDir()
	summary, err := zipHandler{}.Extract(zipPath, target, defaultQuota())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if summary.ExtractedFiles != 3 {
		t.Fatalf("expected 3 files extracted, got %d", summary.ExtractedFiles)
	}

	data, err := os.ReadFile(filepath.Join(target, "logs", "app.log"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(data) != "line one\nline two\n" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestZipExtractSkipsUnsafeEntry(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{
		"../../etc/passwd": "pwned",
		"ok.log":           "fine",
	})

	target := t.TempDir()
	summary, err := zipHandler{}.Extract(zipPath, target, defaultQuota())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if summary.ExtractedFiles != 1 {
		t.Fatalf("expected 1 file extracted, got %d", summary.ExtractedFiles)
	}
	if summary.EntriesSkipped != 1 {
		t.Fatalf("expected 1 entry skipped, got %d", summary.EntriesSkipped)
	}
}

func TestZipExtractFileSizeLimitAborts(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "big.zip")
	writeZip(t, zipPath, map[string]string{
		"huge.log": string(bytes.Repeat([]byte("a"), 1000)),
	})

	target := t.TempDir()
	quota := defaultQuota()
	quota.MaxFileSize = 10
	_, err := zipHandler{}.Extract(zipPath, target, quota)
	if err == nil {
		t.Fatal("expected SecurityLimitExceeded")
	}
	if !appErrors.Is(err, appErrors.KindSecurityLimitExceeded) {
		t.Fatalf("expected KindSecurityLimitExceeded, got %v", err)
	}
}

func writeTar(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create tar: %v", err)
	}
	defer f.Close()
	tw := tar.NewWriter(f)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("tar write content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
}

func TestTarExtract(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "a.tar")
	writeTar(t, tarPath, map[string]string{"a.log": "alpha", "b.log": "beta"})

	target := t.TempDir()
	summary, err := tarHandler{}.Extract(tarPath, target, defaultQuota())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if summary.ExtractedFiles != 2 {
		t.Fatalf("expected 2 files, got %d", summary.ExtractedFiles)
	}
}

func TestTarGzExtract(t *testing.T) {
	dir := t.TempDir()
	tarPath := filepath.Join(dir, "inner.tar")
	writeTar(t, tarPath, map[string]string{"a.log": "alpha"})

	raw, err := os.ReadFile(tarPath)
	if err != nil {
		t.Fatalf("read inner tar: %v", err)
	}
	gzPath := filepath.Join(dir, "a.tar.gz")
	gf, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("create gz: %v", err)
	}
	gw := gzip.NewWriter(gf)
	if _, err := gw.Write(raw); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	gf.Close()

	target := t.TempDir()
	summary, err := tarGzHandler{}.Extract(gzPath, target, defaultQuota())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if summary.ExtractedFiles != 1 {
		t.Fatalf("expected 1 file, got %d", summary.ExtractedFiles)
	}
}

func TestGzExtract(t *testing.T) {
	dir := t.TempDir()
	gzPath := filepath.Join(dir, "single.log.gz")
	gf, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("create gz: %v", err)
	}
	gw := gzip.NewWriter(gf)
	if _, err := gw.Write([]byte("one two three")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	gf.Close()

	target := t.TempDir()
	summary, err := gzHandler{}.Extract(gzPath, target, defaultQuota())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if summary.ExtractedFiles != 1 {
		t.Fatalf("expected 1 file, got %d", summary.ExtractedFiles)
	}
	data, err := os.ReadFile(filepath.Join(target, "single.log"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(data) != "one two three" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestGzExtractSizeLimitAborts(t *testing.T) {
	dir := t.TempDir()
	gzPath := filepath.Join(dir, "big.log.gz")
	gf, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("create gz: %v", err)
	}
	gw := gzip.NewWriter(gf)
	if _, err := gw.Write(bytes.Repeat([]byte("a"), 1000)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	gf.Close()

	target := t.TempDir()
	quota := defaultQuota()
	quota.MaxFileSize = 10
	_, err = gzHandler{}.Extract(gzPath, target, quota)
	if err == nil {
		t.Fatal("expected SecurityLimitExceeded")
	}
	if !appErrors.Is(err, appErrors.KindSecurityLimitExceeded) {
		t.Fatalf("expected KindSecurityLimitExceeded, got %v", err)
	}
}
