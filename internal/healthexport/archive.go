package healthexport

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
)

// ExportPath is the fixed location of the XML document inside the archive.
const ExportPath = "apple_health_export/export.xml"

// ErrInvalidArchive is returned when the upload is not a zip container or
// does not hold ExportPath.
var ErrInvalidArchive = errors.New("invalid archive")

// Archive is an opened export container.
type Archive struct {
	zr     *zip.Reader
	entry  *zip.File
	closer io.Closer
}

// OpenArchive opens the zip file at path.
func OpenArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	a, err := NewArchive(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// NewArchive reads the zip directory from r and locates ExportPath.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	for _, f := range zr.File {
		if f.Name == ExportPath {
			return &Archive{zr: zr, entry: f}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s not found", ErrInvalidArchive, ExportPath)
}

// Export opens a decompressing stream over export.xml.
func (a *Archive) Export() (io.ReadCloser, error) {
	rc, err := a.entry.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	return rc, nil
}

// Extract streams export.xml through an Extractor and returns the batch.
func (a *Archive) Extract() (*Batch, error) {
	rc, err := a.Export()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ExtractAll(rc)
}

// Close releases the underlying file, if the archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
