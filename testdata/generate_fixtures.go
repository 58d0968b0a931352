//go:build ignore

// This program generates the sample packages used by the smoke tests and
// benchmarks: go run testdata/generate_fixtures.go
package main

import (
	"archive/zip"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

func main() {
	if err := generateDocx("testdata/sample.docx"); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.docx: %v\n", err)
		os.Exit(1)
	}

	if err := generateXlsx("testdata/sample.xlsx"); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Test fixtures generated successfully.")
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

var docxParts = []struct{ name, body string }{
	{"[Content_Types].xml", `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`</Types>`},
	{"_rels/.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
		`</Relationships>`},
	{"word/_rels/document.xml.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings" Target="settings.xml"/>` +
		`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://www.example.com/policy" TargetMode="External"/>` +
		`</Relationships>`},
	{"word/document.xml", `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>doctrack Sample Document</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>This document carries a settings part, core properties and one external hyperlink.</w:t></w:r></w:p>` +
		`<w:p><w:hyperlink r:id="rId2"><w:r><w:t>Read the policy</w:t></w:r></w:hyperlink></w:p>` +
		`</w:body></w:document>`},
	{"word/settings.xml", `<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:zoom w:percent="100"/></w:settings>`},
	{"docProps/core.xml", `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>doctrack Sample Document</dc:title><dc:creator>doctrack</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">2024-01-15T09:30:00Z</dcterms:created>` +
		`</cp:coreProperties>`},
}

func generateDocx(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	modified := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	for _, p := range docxParts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(xmlHeader + p.body)); err != nil {
			return err
		}
	}
	return zw.Close()
}

func generateXlsx(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Revenue"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Quarter", "Product", "Revenue", "Growth"},
		{"Q1 2024", "Enterprise", 1250000, "12%"},
		{"Q1 2024", "SMB", 450000, "8%"},
		{"Q2 2024", "Enterprise", 1380000, "10%"},
		{"Q2 2024", "SMB", 520000, "16%"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow("Revenue", cell, &row); err != nil {
			return err
		}
	}
	if _, err := f.NewSheet("Summary"); err != nil {
		return err
	}
	if err := f.SetCellValue("Summary", "A1", "Total Revenue"); err != nil {
		return err
	}
	if err := f.SetCellValue("Summary", "B1", 3600000); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "doctrack Sample Workbook",
		Creator: "doctrack",
		Created: "2024-01-15T09:30:00Z",
	}); err != nil {
		return err
	}

	return f.SaveAs(path)
}
