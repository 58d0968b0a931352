package ooxml

import (
	"fmt"
	"strings"
)

// Kind is the document family of a package.
type Kind int

const (
	// KindUnknown is any package whose main part is not recognized.
	KindUnknown Kind = iota
	// KindDocument is a word-processing package.
	KindDocument
	// KindWorkbook is a spreadsheet package.
	KindWorkbook
	// KindPresentation is recognized only so it can be reported as unsupported.
	KindPresentation
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindWorkbook:
		return "workbook"
	case KindPresentation:
		return "presentation"
	default:
		return "unknown"
	}
}

// DocType is one entry of the document type table: a type name accepted on the
// command line, its family, canonical extension and main-part content type.
type DocType struct {
	Name        string
	Kind        Kind
	Extension   string
	ContentType string
	Description string
}

// Types lists every supported document type.
var Types = []DocType{
	{"docx", KindDocument, ".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml", "Word document"},
	{"docm", KindDocument, ".docm", "application/vnd.ms-word.document.macroEnabled.main+xml", "Word macro-enabled document"},
	{"dotx", KindDocument, ".dotx", "application/vnd.openxmlformats-officedocument.wordprocessingml.template.main+xml", "Word template"},
	{"dotm", KindDocument, ".dotm", "application/vnd.ms-word.template.macroEnabledTemplate.main+xml", "Word macro-enabled template"},
	{"xlsx", KindWorkbook, ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml", "Excel workbook"},
	{"xlsm", KindWorkbook, ".xlsm", "application/vnd.ms-excel.sheet.macroEnabled.main+xml", "Excel macro-enabled workbook"},
	{"xltx", KindWorkbook, ".xltx", "application/vnd.openxmlformats-officedocument.spreadsheetml.template.main+xml", "Excel template"},
	{"xltm", KindWorkbook, ".xltm", "application/vnd.ms-excel.template.macroEnabled.main+xml", "Excel macro-enabled template"},
}

// presentation main content types, detected only to produce a precise error.
var presentationContentTypes = []string{
	"application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml",
	"application/vnd.ms-powerpoint.presentation.macroEnabled.main+xml",
	"application/vnd.openxmlformats-officedocument.presentationml.template.main+xml",
	"application/vnd.ms-powerpoint.template.macroEnabled.main+xml",
	"application/vnd.openxmlformats-officedocument.presentationml.slideshow.main+xml",
}

// LookupType finds a document type by name ("docx") or extension (".docx"), case-insensitively.
func LookupType(name string) (DocType, error) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	for _, t := range Types {
		if t.Name == key {
			return t, nil
		}
	}
	return DocType{}, fmt.Errorf("unknown document type %q — supported types: %s", name, strings.Join(TypeNames(), ", "))
}

// TypeNames returns the names of all supported types in table order.
func TypeNames() []string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = t.Name
	}
	return names
}

// typeForContentType maps a main-part content type to its document type.
func typeForContentType(contentType string) (DocType, Kind) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, t := range Types {
		if strings.ToLower(t.ContentType) == ct {
			return t, t.Kind
		}
	}
	for _, p := range presentationContentTypes {
		if strings.ToLower(p) == ct {
			return DocType{}, KindPresentation
		}
	}
	return DocType{}, KindUnknown
}
