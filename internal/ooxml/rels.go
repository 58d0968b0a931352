package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Relationship type URIs used by the package model itself.
const (
	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeCoreProperties = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelTypeSettings       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"

	relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// TargetMode says whether a relationship target lives inside the package.
type TargetMode string

const (
	// Internal targets resolve to a part of the same package.
	Internal TargetMode = "Internal"
	// External targets are absolute URIs that are never resolved.
	External TargetMode = "External"
)

// Relationship is a single typed link from a source part (or the package root).
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Mode returns the relationship's target mode. A missing attribute means Internal.
func (r Relationship) Mode() TargetMode {
	if strings.EqualFold(r.TargetMode, string(External)) {
		return External
	}
	return Internal
}

type xmlRelationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// Relationships is the ordered relationship collection owned by one source.
type Relationships struct {
	source string
	items  []Relationship
	dirty  bool
}

func newRelationships(source string) *Relationships {
	return &Relationships{source: source}
}

func parseRelationships(source string, data []byte) (*Relationships, error) {
	var x xmlRelationships
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, err
	}
	rels := newRelationships(source)
	seen := make(map[string]bool, len(x.Relationship))
	for _, r := range x.Relationship {
		if r.ID == "" {
			return nil, fmt.Errorf("relationship with empty Id")
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate relationship Id %q", r.ID)
		}
		seen[r.ID] = true
		rels.items = append(rels.items, r)
	}
	return rels, nil
}

// Source returns the address of the owning part, or "/" for the package root.
func (rs *Relationships) Source() string {
	if rs.source == "" {
		return "/"
	}
	return "/" + rs.source
}

// Len returns the number of relationships in the collection.
func (rs *Relationships) Len() int { return len(rs.items) }

// All returns a copy of the relationships in document order.
func (rs *Relationships) All() []Relationship {
	out := make([]Relationship, len(rs.items))
	copy(out, rs.items)
	return out
}

// Get returns the relationship with the given id.
func (rs *Relationships) Get(id string) (Relationship, bool) {
	for _, r := range rs.items {
		if r.ID == id {
			return r, true
		}
	}
	return Relationship{}, false
}

// ByType returns every relationship of the given type in document order.
func (rs *Relationships) ByType(relType string) []Relationship {
	var out []Relationship
	for _, r := range rs.items {
		if r.Type == relType {
			out = append(out, r)
		}
	}
	return out
}

// Add appends a relationship and returns it with a freshly generated id.
func (rs *Relationships) Add(relType, target string, mode TargetMode) Relationship {
	r := Relationship{
		ID:     rs.nextID(),
		Type:   relType,
		Target: target,
	}
	if mode == External {
		r.TargetMode = string(External)
	}
	rs.items = append(rs.items, r)
	rs.dirty = true
	return r
}

// SetTarget rewrites the target and mode of an existing relationship, keeping its id.
func (rs *Relationships) SetTarget(id, target string, mode TargetMode) error {
	for i := range rs.items {
		if rs.items[i].ID != id {
			continue
		}
		rs.items[i].Target = target
		rs.items[i].TargetMode = ""
		if mode == External {
			rs.items[i].TargetMode = string(External)
		}
		rs.dirty = true
		return nil
	}
	return fmt.Errorf("relationship %s not found in %s", id, rs.Source())
}

// Remove deletes the relationship with the given id. It reports whether one was removed.
func (rs *Relationships) Remove(id string) bool {
	for i := range rs.items {
		if rs.items[i].ID == id {
			rs.items = append(rs.items[:i], rs.items[i+1:]...)
			rs.dirty = true
			return true
		}
	}
	return false
}

// nextID returns rId<N+1> for the largest numeric rId suffix N, skipping taken ids.
func (rs *Relationships) nextID() string {
	maxID := 0
	taken := make(map[string]bool, len(rs.items))
	for _, r := range rs.items {
		taken[r.ID] = true
		if strings.HasPrefix(r.ID, "rId") {
			if n, err := strconv.Atoi(r.ID[3:]); err == nil && n > maxID {
				maxID = n
			}
		}
	}
	for n := maxID + 1; ; n++ {
		id := fmt.Sprintf("rId%d", n)
		if !taken[id] {
			return id
		}
	}
}

func (rs *Relationships) marshal() ([]byte, error) {
	x := xmlRelationships{
		Namespace:    relationshipsNamespace,
		Relationship: rs.items,
	}
	data, err := xml.Marshal(x)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	buf.Write(data)
	return buf.Bytes(), nil
}

// relsPartName maps a source part name to its relationship part name.
// "word/document.xml" -> "word/_rels/document.xml.rels", "" -> "_rels/.rels".
func relsPartName(source string) string {
	dir, base := path.Split(source)
	return dir + "_rels/" + base + ".rels"
}

// relsSource maps a relationship part name back to its source part name.
func relsSource(name string) (string, bool) {
	if !strings.HasSuffix(name, ".rels") {
		return "", false
	}
	dir, base := path.Split(name)
	if !strings.HasSuffix(dir, "_rels/") {
		return "", false
	}
	parent := strings.TrimSuffix(dir, "_rels/")
	return parent + strings.TrimSuffix(base, ".rels"), true
}

// resolveTarget resolves an internal target against the source part's directory.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join("/", path.Dir("/"+source), target), "/")
}
