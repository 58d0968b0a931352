// Package ooxml models Office Open XML packages: zip archives of parts linked
// by relationship parts, with package-level core properties.
//
// An Archive is the read-only view of a file on disk. Editing always happens on
// a Package obtained from Archive.Clone, which owns copies of every part so the
// source file is never touched.
package ooxml

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ErrInvalidPackage is returned when an archive cannot be read as an OPC package.
var ErrInvalidPackage = errors.New("invalid OOXML package")

// Archive is an opened, read-only package file.
type Archive struct {
	name   string
	closer io.Closer
	zr     *zip.Reader
}

// Open opens the package at path for reading.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading %s — check file permissions or close the file if it is open in another application", path)
		}
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("%w: %s is not a ZIP archive", ErrInvalidPackage, path)
		}
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return &Archive{name: path, closer: rc, zr: &rc.Reader}, nil
}

// OpenReader opens a package held in r.
func OpenReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: the data does not appear to be a valid ZIP archive: %v", ErrInvalidPackage, err)
	}
	return &Archive{name: "<reader>", zr: zr}, nil
}

// Name returns the path the archive was opened from.
func (a *Archive) Name() string { return a.name }

// Close releases the underlying file. Closing an archive opened from a reader is a no-op.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// Clone reads every entry into a new, independently owned Package.
func (a *Archive) Clone() (*Package, error) {
	pkg := newPackage()
	for _, f := range a.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: could not read %s: %v", ErrInvalidPackage, f.Name, err)
		}
		modified := f.Modified
		if modified.IsZero() {
			modified = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		pkg.addPart(&Part{
			Name:     f.Name,
			Content:  content,
			method:   f.Method,
			modified: modified,
		})
	}
	if err := pkg.load(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
