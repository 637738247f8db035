package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrImageNotFound marks a row whose declared image could not be located.
var ErrImageNotFound = errors.New("image not found")

// DefaultImagesSubdir is where archives conventionally keep their images,
// relative to the extraction root.
const DefaultImagesSubdir = "resources/nsfw_data"

// Locator maps the image path declared in a CSV row to a file on disk.
type Locator interface {
	Locate(declared string) (string, error)
}

// ArchiveLocator resolves declared paths inside an extracted archive.
//
// A path starting with "../" has that one segment stripped and is taken
// relative to Root; any other path is taken relative to CSVDir. When that
// file does not exist, the base name is searched for under
// Root/ImagesSubdir in lexical walk order and the first hit wins; an
// absolute ImagesSubdir is searched as is. Candidates that escape Root
// are ignored.
type ArchiveLocator struct {
	Root         string
	CSVDir       string
	ImagesSubdir string
}

// Resolve locates declared inside an archive extracted at root whose CSV
// lives in csvDir, using the default images subdirectory.
func Resolve(declared, csvDir, root string) (string, error) {
	loc := &ArchiveLocator{Root: root, CSVDir: csvDir, ImagesSubdir: DefaultImagesSubdir}
	return loc.Locate(declared)
}

func (l *ArchiveLocator) Locate(declared string) (string, error) {
	clean := normalizeSeparators(declared)
	if clean == "" {
		return "", fmt.Errorf("%w: empty path", ErrImageNotFound)
	}

	root, err := filepath.Abs(l.Root)
	if err != nil {
		return "", err
	}

	var candidate string
	if rest, ok := strings.CutPrefix(clean, "../"); ok {
		candidate = filepath.Join(root, filepath.FromSlash(rest))
	} else {
		csvDir, err := filepath.Abs(l.CSVDir)
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(csvDir, filepath.FromSlash(clean))
	}

	if within(root, candidate) && isFile(candidate) {
		return candidate, nil
	}

	subdir := l.ImagesSubdir
	if subdir == "" {
		subdir = DefaultImagesSubdir
	}
	searchDir := filepath.FromSlash(subdir)
	if !filepath.IsAbs(searchDir) {
		searchDir = filepath.Join(root, searchDir)
	}
	if found, ok := searchByName(searchDir, path.Base(clean)); ok {
		return found, nil
	}

	return "", fmt.Errorf("%w: %s", ErrImageNotFound, declared)
}

// FlatLocator looks up the base name of a declared path in a single
// images directory. It serves CSVs that travel without their archive.
type FlatLocator struct {
	Dir string
}

func (l *FlatLocator) Locate(declared string) (string, error) {
	clean := normalizeSeparators(declared)
	if clean == "" {
		return "", fmt.Errorf("%w: empty path", ErrImageNotFound)
	}

	dir, err := filepath.Abs(l.Dir)
	if err != nil {
		return "", err
	}

	candidate := filepath.Join(dir, path.Base(clean))
	if !isFile(candidate) {
		return "", fmt.Errorf("%w: %s", ErrImageNotFound, candidate)
	}
	return candidate, nil
}

// normalizeSeparators turns Windows separators into slashes so both
// conventions resolve the same way.
func normalizeSeparators(p string) string {
	return strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
}

func searchByName(dir, name string) (string, bool) {
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", false
	}

	var found string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the walk goes on
			if d != nil && d.IsDir() && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && d.Name() == name {
			found = p
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil || found == "" {
		return "", false
	}
	return found, true
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
