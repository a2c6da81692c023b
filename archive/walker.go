// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to
// Walk, the file argument is the zip.File structure for file in archive
// which satisfies match condition. If an error is returned, processing
// stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks all files in the archive with names starting with prefix in
// natural name order, calling walkFn for each item. Archives with entries
// which could escape extraction directory (absolute or containing "..")
// are rejected as a whole before anything is visited.
func Walk(ctx context.Context, archive, prefix string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, prefix) {
			files = append(files, f)
		}
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		switch {
		case a.Name == b.Name:
			return 0
		case natural.Less(a.Name, b.Name):
			return -1
		default:
			return 1
		}
	})

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(strings.ReplaceAll(name, `\`, "/"), "/"), "..")
}
