// Package archive provides tar stages: Pack produces an archive from a
// directory, Extract unpacks one into a directory.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// ErrUnsafePath is returned by Extract for entries that would land outside
// the target directory.
var ErrUnsafePath = errors.New("archive entry escapes target directory")

// Pack returns a Source producing a tar archive of the given entries of dir.
// Entries are paths relative to dir; directories are added recursively.
// With no entries the whole directory is packed.
func Pack(dir string, entries ...string) *stage.Producer {
	if len(entries) == 0 {
		entries = []string{"."}
	}

	return stage.NewProducer("tar "+dir, func(w io.Writer) error {
		tw := tar.NewWriter(w)
		for _, entry := range entries {
			if err := addTree(tw, dir, entry); err != nil {
				return err
			}
		}
		return tw.Close()
	})
}

func addTree(tw *tar.Writer, dir, entry string) error {
	root := filepath.Join(dir, entry)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		return addFile(tw, path, filepath.ToSlash(rel), d)
	})
}

func addFile(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() && !info.IsDir() {
		return nil
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if info.IsDir() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// Extract returns a Sink unpacking a tar archive into dir, which is created
// if needed. Only directories and regular files are extracted.
func Extract(dir string) *stage.Consumer {
	return stage.NewConsumer("untar "+dir, func(r io.Reader) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		tr := tar.NewReader(r)
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := extractEntry(tr, dir, hdr); err != nil {
				return err
			}
		}
	})
}

func extractEntry(tr *tar.Reader, dir string, hdr *tar.Header) error {
	if !filepath.IsLocal(hdr.Name) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
	}
	target := filepath.Join(dir, filepath.FromSlash(hdr.Name))

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o755)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, hdr.FileInfo().Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
	return nil
}
