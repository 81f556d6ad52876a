// Package takeout provides read access to export packages: zip archives whose
// members are laid out per data category (Takeout/Mail/..., Takeout/Fit/...).
//
// Absence of a member is an expected condition, not a failure: a category the
// user never exported simply is not in the archive. Readers translate
// ErrMemberNotFound into an empty table.
package takeout

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrMemberNotFound reports that an expected archive member is absent.
var ErrMemberNotFound = errors.New("archive member not found")

// Archive is an open export package.
type Archive struct {
	zr *zip.ReadCloser
}

// Open opens the export package at path.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open export package: %w", err)
	}
	return &Archive{zr: zr}, nil
}

// Close releases the underlying archive file.
func (a *Archive) Close() error { return a.zr.Close() }

// cleanName normalizes a zip entry name. Some producers emit backslashes.
func cleanName(name string) string {
	return path.Clean(strings.ReplaceAll(name, "\\", "/"))
}

func (a *Archive) find(name string) *zip.File {
	want := cleanName(name)
	for _, zf := range a.zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if cleanName(zf.Name) == want {
			return zf
		}
	}
	return nil
}

// OpenMember opens a single member for reading. Returns ErrMemberNotFound if
// no such member exists.
func (a *Archive) OpenMember(name string) (io.ReadCloser, error) {
	zf := a.find(name)
	if zf == nil {
		return nil, fmt.Errorf("%w: %q", ErrMemberNotFound, name)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("open member %q: %w", name, err)
	}
	return rc, nil
}

// ReadMember reads a member fully into memory.
func (a *Archive) ReadMember(name string) ([]byte, error) {
	rc, err := a.OpenMember(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read member %q: %w", name, err)
	}
	return data, nil
}

// Glob returns member names with the given prefix and suffix, in archive
// order. Directory entries are skipped.
func (a *Archive) Glob(prefix, suffix string) []string {
	var out []string
	for _, zf := range a.zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := cleanName(zf.Name)
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			out = append(out, name)
		}
	}
	return out
}
