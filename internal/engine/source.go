package engine

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/patchkit/internal/fsops"
)

// Source provides the content of a patch or patch bundle.
type Source interface {
	// Unpack makes the content available below dir and returns the
	// directory holding the patch metadata.
	Unpack(ctx context.Context, dir string) (string, error)
}

// SourceFor returns the source for a command line argument: an http(s) URL,
// a zip file or a directory.
func SourceFor(arg string) Source {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return &URLSource{URL: arg}
	}
	return &FileSource{Path: arg}
}

// FileSource is a patch zip file or an unpacked patch directory.
type FileSource struct {
	Path string
}

// Unpack extracts a zip file into dir. Directories are used in place.
func (s *FileSource) Unpack(ctx context.Context, dir string) (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open patch %s: %w", s.Path, err)
	}
	if info.IsDir() {
		return s.Path, nil
	}

	dst := filepath.Join(dir, "content")
	if err := unzip(ctx, s.Path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// URLSource downloads a patch zip over http or https.
type URLSource struct {
	URL    string
	Client *http.Client
}

// Unpack downloads the archive into dir and extracts it.
func (s *URLSource) Unpack(ctx context.Context, dir string) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid patch url: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", s.URL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: %s", s.URL, resp.Status)
	}

	return (&ReaderSource{Reader: resp.Body}).Unpack(ctx, dir)
}

// ReaderSource reads a patch zip from a stream.
type ReaderSource struct {
	Reader io.Reader
}

// Unpack stores the stream in dir and extracts it.
func (s *ReaderSource) Unpack(ctx context.Context, dir string) (string, error) {
	archive := filepath.Join(dir, "patch.zip")
	if err := fsops.NewRealFS().WriteStream(archive, s.Reader, 0644); err != nil {
		return "", fmt.Errorf("failed to store patch archive: %w", err)
	}
	return (&FileSource{Path: archive}).Unpack(ctx, dir)
}

// unzip extracts archive into dst, rejecting entries that escape dst.
func unzip(ctx context.Context, archive, dst string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer func() {
		_ = r.Close()
	}()

	fs := fsops.NewRealFS()
	if err := fs.MkdirAll(dst, 0755); err != nil {
		return err
	}
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.FromSlash(strings.TrimSuffix(f.Name, "/"))
		if err := fs.ValidateRelPath(name); err != nil {
			return fmt.Errorf("invalid archive entry %q: %w", f.Name, err)
		}
		path := filepath.Join(dst, name)

		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extract(fs, f, path); err != nil {
			return err
		}
	}
	return nil
}

func extract(fs fsops.FS, f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	return fs.WriteStream(path, rc, perm)
}
