// Package verify re-opens a written package to confirm that consumers can read it.
package verify

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/leftp/doctrack/internal/ooxml"
)

// ErrVerification wraps every failure reported by this package.
var ErrVerification = errors.New("output verification failed")

// Result summarizes a successful verification.
type Result struct {
	Kind   string   `json:"kind"`
	Sheets []string `json:"sheets,omitempty"`
	Title  string   `json:"title,omitempty"`
}

// File checks the package at path according to its family.
func File(path string) (*Result, error) {
	a, err := ooxml.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	defer a.Close()

	pkg, err := a.Clone()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	defer pkg.Close()

	kind, _ := pkg.Kind()
	switch kind {
	case ooxml.KindWorkbook:
		return Workbook(path)
	case ooxml.KindDocument:
		return Document(pkg)
	default:
		return nil, fmt.Errorf("%w: %s is neither a document nor a workbook", ErrVerification, path)
	}
}

// Workbook opens the file with excelize and reads its sheet list and properties.
func Workbook(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s as a workbook: %v", ErrVerification, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no worksheets", ErrVerification, path)
	}
	props, err := f.GetDocProps()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read document properties of %s: %v", ErrVerification, path, err)
	}
	return &Result{Kind: ooxml.KindWorkbook.String(), Sheets: sheets, Title: props.Title}, nil
}

// Document checks that the main part and every relationship part are well-formed
// XML and that internal relationships resolve.
func Document(pkg *ooxml.Package) (*Result, error) {
	main, err := pkg.MainPart()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if err := wellFormed(main.Content); err != nil {
		return nil, fmt.Errorf("%w: %s is not well-formed XML: %v", ErrVerification, main.Address(), err)
	}
	if err := hasBody(main.Content); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrVerification, main.Address(), err)
	}

	for _, rs := range pkg.RelationshipCollections() {
		for _, r := range rs.All() {
			if r.Mode() == ooxml.External {
				continue
			}
			if _, err := pkg.ResolveTarget(rs, r); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrVerification, err)
			}
		}
	}

	title, _ := pkg.CoreProperties().Get("Title")
	return &Result{Kind: ooxml.KindDocument.String(), Title: title}, nil
}

func wellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func hasBody(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return fmt.Errorf("no body element found")
		}
		if err != nil {
			return err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			return nil
		}
	}
}
