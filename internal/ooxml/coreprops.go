package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	nsCoreProperties = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDC             = "http://purl.org/dc/elements/1.1/"
	nsDCTerms        = "http://purl.org/dc/terms/"
	nsDCMIType       = "http://purl.org/dc/dcmitype/"
	nsXSI            = "http://www.w3.org/2001/XMLSchema-instance"

	corePropertiesPart = "docProps/core.xml"
)

// PropertyKind is the native type of a core property.
type PropertyKind int

const (
	// PropertyText holds free text.
	PropertyText PropertyKind = iota
	// PropertyDate holds a W3CDTF date-time.
	PropertyDate
)

// PropertyField describes one of the fixed package properties.
type PropertyField struct {
	Name   string
	Kind   PropertyKind
	prefix string
	local  string
}

// PropertyFields lists every package property in display order.
var PropertyFields = []PropertyField{
	{"Title", PropertyText, "dc", "title"},
	{"Subject", PropertyText, "dc", "subject"},
	{"Creator", PropertyText, "dc", "creator"},
	{"Keywords", PropertyText, "cp", "keywords"},
	{"Description", PropertyText, "dc", "description"},
	{"LastModifiedBy", PropertyText, "cp", "lastModifiedBy"},
	{"Revision", PropertyText, "cp", "revision"},
	{"LastPrinted", PropertyDate, "cp", "lastPrinted"},
	{"Created", PropertyDate, "dcterms", "created"},
	{"Modified", PropertyDate, "dcterms", "modified"},
	{"Category", PropertyText, "cp", "category"},
	{"Identifier", PropertyText, "dc", "identifier"},
	{"ContentType", PropertyText, "cp", "contentType"},
	{"Language", PropertyText, "dc", "language"},
	{"Version", PropertyText, "cp", "version"},
	{"ContentStatus", PropertyText, "cp", "contentStatus"},
}

// LookupProperty finds a property field by name, case-insensitively.
func LookupProperty(name string) (PropertyField, bool) {
	for _, f := range PropertyFields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return PropertyField{}, false
}

func propertyByLocal(local string) (PropertyField, bool) {
	for _, f := range PropertyFields {
		if f.local == local {
			return f, true
		}
	}
	return PropertyField{}, false
}

// CoreProperties is the package-level metadata held in docProps/core.xml.
// Values are kept as their serialized text; dates use W3CDTF.
type CoreProperties struct {
	values map[string]string
	dirty  bool
}

func newCoreProperties() *CoreProperties {
	return &CoreProperties{values: make(map[string]string)}
}

func parseCoreProperties(data []byte) (*CoreProperties, error) {
	cp := newCoreProperties()
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 {
				continue
			}
			var v struct {
				Value string `xml:",chardata"`
			}
			if err := dec.DecodeElement(&v, &t); err != nil {
				return nil, err
			}
			depth--
			if f, ok := propertyByLocal(t.Name.Local); ok {
				cp.values[f.Name] = strings.TrimSpace(v.Value)
			}
		case xml.EndElement:
			depth--
		}
	}
	return cp, nil
}

// Get returns the serialized value of a property and whether it is set.
func (cp *CoreProperties) Get(name string) (string, bool) {
	f, ok := LookupProperty(name)
	if !ok {
		return "", false
	}
	v, ok := cp.values[f.Name]
	return v, ok
}

// Date returns a date property parsed as a time.
func (cp *CoreProperties) Date(name string) (time.Time, bool) {
	v, ok := cp.Get(name)
	if !ok || v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetText sets a text property.
func (cp *CoreProperties) SetText(name, value string) error {
	f, ok := LookupProperty(name)
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	if f.Kind != PropertyText {
		return fmt.Errorf("property %s is a date — use SetDate", f.Name)
	}
	cp.set(f.Name, value)
	return nil
}

// SetDate sets a date property, stored in UTC.
func (cp *CoreProperties) SetDate(name string, t time.Time) error {
	f, ok := LookupProperty(name)
	if !ok {
		return fmt.Errorf("unknown property %q", name)
	}
	if f.Kind != PropertyDate {
		return fmt.Errorf("property %s is not a date", f.Name)
	}
	cp.set(f.Name, t.UTC().Format(time.RFC3339))
	return nil
}

// Clear removes a property.
func (cp *CoreProperties) Clear(name string) {
	f, ok := LookupProperty(name)
	if !ok {
		return
	}
	if _, set := cp.values[f.Name]; set {
		delete(cp.values, f.Name)
		cp.dirty = true
	}
}

func (cp *CoreProperties) set(name, value string) {
	if old, ok := cp.values[name]; ok && old == value {
		return
	}
	cp.values[name] = value
	cp.dirty = true
}

func (cp *CoreProperties) marshal() []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	fmt.Fprintf(&b, `<cp:coreProperties xmlns:cp="%s" xmlns:dc="%s" xmlns:dcterms="%s" xmlns:dcmitype="%s" xmlns:xsi="%s">`,
		nsCoreProperties, nsDC, nsDCTerms, nsDCMIType, nsXSI)
	for _, f := range PropertyFields {
		v, ok := cp.values[f.Name]
		if !ok {
			continue
		}
		tag := f.prefix + ":" + f.local
		b.WriteString("<" + tag)
		if f.prefix == "dcterms" {
			b.WriteString(` xsi:type="dcterms:W3CDTF"`)
		}
		b.WriteString(">")
		_ = xml.EscapeText(&b, []byte(v))
		b.WriteString("</" + tag + ">")
	}
	b.WriteString(`</cp:coreProperties>`)
	return b.Bytes()
}
