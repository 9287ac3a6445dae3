package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// Resolve turns a path into the list of files to parse: the path itself if it
// is a file, every file directly inside it if it is a directory, otherwise the
// matches of path used as a glob pattern. Subdirectories are not descended into.
//
// An empty directory yields no files and no error; a path that is neither a
// file, a directory nor a matching glob yields ErrSourceNotFound.
func Resolve(path string) ([]string, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return []string{abs}, nil
	case err == nil && info.IsDir():
		return listDir(path)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	matches, err := filepath.Glob(path)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: %w", path, internalerr.ErrSourceNotFound)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		abs, err := filepath.Abs(m)
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	return files, nil
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(abs, e.Name()))
	}
	return files, nil
}
