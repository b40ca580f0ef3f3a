package healthexport

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ParseError reports malformed XML. It aborts the whole ingestion run.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse export.xml at byte %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extractor streams recognised elements out of an export document.
//
// Only the decoder's element-name stack lives across calls; attribute maps
// are built per element and owned by the caller once returned.
type Extractor struct {
	dec  *xml.Decoder
	done bool
}

// NewExtractor wraps r in a streaming extractor.
func NewExtractor(r io.Reader) *Extractor {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &Extractor{dec: dec}
}

// Next returns the next recognised record in document order, or io.EOF once
// the document is exhausted. Any other error is a *ParseError.
func (e *Extractor) Next() (Record, error) {
	if e.done {
		return Record{}, io.EOF
	}
	for {
		tok, err := e.dec.Token()
		if err != nil {
			e.done = true
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, &ParseError{Offset: e.dec.InputOffset(), Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		spec, ok := recognised[start.Name.Local]
		if !ok {
			continue
		}

		attrs := make(map[string]string, len(spec.attrs))
		for _, a := range start.Attr {
			if _, want := spec.attrs[a.Name.Local]; want {
				attrs[a.Name.Local] = a.Value
			}
		}
		return Record{Kind: spec.kind, Attrs: attrs}, nil
	}
}

// ExtractAll drains r into a Batch. A parse error discards everything read so far.
func ExtractAll(r io.Reader) (*Batch, error) {
	ex := NewExtractor(r)
	batch := &Batch{}
	for {
		rec, err := ex.Next()
		if errors.Is(err, io.EOF) {
			return batch, nil
		}
		if err != nil {
			return nil, err
		}
		batch.add(rec)
	}
}
