// Package ooxmltest builds small but well-formed OOXML packages for tests.
package ooxmltest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const (
	relNS            = "http://schemas.openxmlformats.org/package/2006/relationships"
	relOfficeDoc     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relSettings      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relHyperlink     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relTemplate      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/attachedTemplate"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	pptxMainType     = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	settingsType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	corePropsType    = "application/vnd.openxmlformats-package.core-properties+xml"
	relationshipType = "application/vnd.openxmlformats-package.relationships+xml"
)

type documentOptions struct {
	mainType  string
	settings  bool
	title     string
	hyperlink string
	template  string

	mainTemplate    string
	missingSettings bool
}

// Option customizes a generated document.
type Option func(*documentOptions)

// WithSettings adds word/settings.xml linked from the main part.
func WithSettings() Option {
	return func(o *documentOptions) { o.settings = true }
}

// WithTitle adds docProps/core.xml carrying the given title.
func WithTitle(title string) Option {
	return func(o *documentOptions) { o.title = title }
}

// WithHyperlink adds an external hyperlink relationship to the main part.
func WithHyperlink(url string) Option {
	return func(o *documentOptions) { o.hyperlink = url }
}

// WithTemplate adds an attachedTemplate relationship to the settings part.
// It implies WithSettings.
func WithTemplate(url string) Option {
	return func(o *documentOptions) {
		o.settings = true
		o.template = url
	}
}

// WithMainTemplate adds an attachedTemplate relationship (rId5) to the main
// part, where some producers put it regardless of a settings part.
func WithMainTemplate(url string) Option {
	return func(o *documentOptions) { o.mainTemplate = url }
}

// WithMissingSettings links a settings part from the main part without
// writing the part itself.
func WithMissingSettings() Option {
	return func(o *documentOptions) { o.missingSettings = true }
}

// WithMainContentType overrides the content type of word/document.xml.
func WithMainContentType(ct string) Option {
	return func(o *documentOptions) { o.mainType = ct }
}

// Document returns the bytes of a minimal word-processing package.
func Document(t testing.TB, opts ...Option) []byte {
	t.Helper()
	o := documentOptions{mainType: docxMainType}
	for _, opt := range opts {
		opt(&o)
	}

	var overrides []string
	overrides = append(overrides, override("/word/document.xml", o.mainType))
	if o.settings {
		overrides = append(overrides, override("/word/settings.xml", settingsType))
	}
	if o.title != "" {
		overrides = append(overrides, override("/docProps/core.xml", corePropsType))
	}

	pkgRels := []string{rel("rId1", relOfficeDoc, "word/document.xml", false)}
	if o.title != "" {
		pkgRels = append(pkgRels, rel("rId2", relCoreProps, "docProps/core.xml", false))
	}

	var docRels []string
	if o.settings || o.missingSettings {
		docRels = append(docRels, rel("rId1", relSettings, "settings.xml", false))
	}
	if o.hyperlink != "" {
		docRels = append(docRels, rel("rId2", relHyperlink, o.hyperlink, true))
	}
	if o.mainTemplate != "" {
		docRels = append(docRels, rel("rId5", relTemplate, o.mainTemplate, true))
	}

	files := []entry{
		{"[Content_Types].xml", contentTypes(overrides)},
		{"_rels/.rels", relationships(pkgRels)},
		{"word/_rels/document.xml.rels", relationships(docRels)},
		{"word/document.xml", xml.Header + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Quarterly report</w:t></w:r></w:p></w:body></w:document>`},
	}
	if o.settings {
		files = append(files, entry{"word/settings.xml", xml.Header + `<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`})
		if o.template != "" {
			files = append(files, entry{"word/_rels/settings.xml.rels", relationships([]string{rel("rId1", relTemplate, o.template, true)})})
		}
	}
	if o.title != "" {
		files = append(files, entry{"docProps/core.xml", xml.Header +
			`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
			`<dc:title>` + escape(o.title) + `</dc:title><dc:creator>ooxmltest</dc:creator>` +
			`<dcterms:created xsi:type="dcterms:W3CDTF">2024-01-15T09:30:00Z</dcterms:created>` +
			`</cp:coreProperties>`})
	}
	return zipEntries(t, files)
}

// Presentation returns the bytes of a minimal presentation package.
func Presentation(t testing.TB) []byte {
	t.Helper()
	return zipEntries(t, []entry{
		{"[Content_Types].xml", contentTypes([]string{override("/ppt/presentation.xml", pptxMainType)})},
		{"_rels/.rels", relationships([]string{rel("rId1", relOfficeDoc, "ppt/presentation.xml", false)})},
		{"ppt/presentation.xml", xml.Header + `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`},
	})
}

// Workbook returns the bytes of a spreadsheet package produced by excelize.
func Workbook(t testing.TB) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Revenue"); err != nil {
		t.Fatalf("could not rename sheet: %v", err)
	}
	rows := [][]interface{}{
		{"Quarter", "Revenue"},
		{"Q1 2024", 1250000},
		{"Q2 2024", 1380000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("invalid cell coordinates: %v", err)
		}
		if err := f.SetSheetRow("Revenue", cell, &row); err != nil {
			t.Fatalf("could not write row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("could not serialize workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data into dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("could not write %s: %v", path, err)
	}
	return path
}

type entry struct {
	name    string
	content string
}

func zipEntries(t testing.TB, files []entry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("could not create %s: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			t.Fatalf("could not write %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("could not finalize archive: %v", err)
	}
	return buf.Bytes()
}

func contentTypes(overrides []string) string {
	return xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="` + relationshipType + `"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		strings.Join(overrides, "") +
		`</Types>`
}

func override(partName, ct string) string {
	return fmt.Sprintf(`<Override PartName="%s" ContentType="%s"/>`, partName, ct)
}

func relationships(rels []string) string {
	return xml.Header + `<Relationships xmlns="` + relNS + `">` + strings.Join(rels, "") + `</Relationships>`
}

func rel(id, relType, target string, external bool) string {
	mode := ""
	if external {
		mode = ` TargetMode="External"`
	}
	return fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"%s/>`, id, relType, escape(target), mode)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
