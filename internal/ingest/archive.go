package ingest

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoCSV is returned when an extracted archive contains no CSV file.
	ErrNoCSV = errors.New("no CSV found in archive")
	// ErrBadArchive is returned when the archive cannot be opened or extracted.
	ErrBadArchive = errors.New("archive unreadable")
)

// extractArchive unpacks the zip at zipPath into dest. Entries whose
// names would land outside dest abort the extraction.
func extractArchive(zipPath, dest string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(f.Name, `\`, "/")))
		if !within(root, target) {
			return fmt.Errorf("%w: entry %q escapes the archive root", ErrBadArchive, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadArchive, f.Name, err)
		}
	}

	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// findCSV returns the first *.csv file under root in lexical walk order.
func findCSV(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// macOS resource forks are not data
		if d.IsDir() && d.Name() == "__MACOSX" {
			return filepath.SkipDir
		}
		if strings.HasPrefix(d.Name(), "._") {
			return nil
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(d.Name()), ".csv") {
			found = p
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNoCSV
	}
	return found, nil
}
