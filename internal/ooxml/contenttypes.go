package ooxml

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"
)

const (
	contentTypesPart      = "[Content_Types].xml"
	contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

	ContentTypeRelationships  = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeCoreProperties = "application/vnd.openxmlformats-package.core-properties+xml"
)

// contentTypes maps the [Content_Types].xml part.
type contentTypes struct {
	XMLName   xml.Name          `xml:"Types"`
	Namespace string            `xml:"xmlns,attr"`
	Defaults  []contentDefault  `xml:"Default"`
	Overrides []contentOverride `xml:"Override"`

	dirty bool
}

type contentDefault struct {
	Extension   string `xml:",attr"`
	ContentType string `xml:",attr"`
}

type contentOverride struct {
	PartName    string `xml:",attr"`
	ContentType string `xml:",attr"`
}

func parseContentTypes(data []byte) (*contentTypes, error) {
	var ct contentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

// lookup returns the content type of a part name: override first, then extension default.
func (ct *contentTypes) lookup(name string) string {
	partName := "/" + name
	for _, o := range ct.Overrides {
		if strings.EqualFold(o.PartName, partName) {
			return o.ContentType
		}
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType
		}
	}
	return ""
}

func (ct *contentTypes) ensureDefault(ext, contentType string) {
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return
		}
	}
	ct.Defaults = append(ct.Defaults, contentDefault{Extension: ext, ContentType: contentType})
	ct.dirty = true
}

func (ct *contentTypes) ensureOverride(name, contentType string) {
	partName := "/" + name
	for i, o := range ct.Overrides {
		if strings.EqualFold(o.PartName, partName) {
			if o.ContentType != contentType {
				ct.Overrides[i].ContentType = contentType
				ct.dirty = true
			}
			return
		}
	}
	ct.Overrides = append(ct.Overrides, contentOverride{PartName: partName, ContentType: contentType})
	ct.dirty = true
}

func (ct *contentTypes) marshal() ([]byte, error) {
	ct.Namespace = contentTypesNamespace
	data, err := xml.Marshal(ct)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	buf.Write(data)
	return buf.Bytes(), nil
}
