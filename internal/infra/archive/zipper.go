package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Builder packages every regular file of an output area into a single zip.
// Entry names are flattened to basenames; frame filenames are already
// namespaced by source video, so no two entries collide.
type Builder struct {
	sorted bool
}

type Option func(*Builder)

// WithSortedEntries makes entry order deterministic. The default follows
// directory-walk order, which is not guaranteed to be reproducible.
func WithSortedEntries() Option {
	return func(b *Builder) { b.sorted = true }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateArchive writes the archive of dir to outputPath. Any read or write
// failure aborts the archive; there is no partial-archive guarantee.
func (b *Builder) CreateArchive(ctx context.Context, dir string, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer out.Close()

	if err := b.WriteArchive(ctx, dir, out); err != nil {
		return err
	}
	return out.Close()
}

// WriteArchive streams the archive of dir to w.
func (b *Builder) WriteArchive(ctx context.Context, dir string, w io.Writer) error {
	files, err := b.listFiles(dir)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, fp := range files {
		select {
		case <-ctx.Done():
			zw.Close()
			return ctx.Err()
		default:
		}

		if err := addFileToZip(zw, fp); err != nil {
			zw.Close()
			return fmt.Errorf("add %s to archive: %w", fp, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

func (b *Builder) listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk output area: %w", err)
	}
	if b.sorted {
		sort.Strings(files)
	}
	return files, nil
}

func addFileToZip(zw *zip.Writer, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(filename)
	header.Method = zip.Deflate

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
