package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// strict-conformance spelling of the officeDocument relationship type
const relTypeOfficeDocumentStrict = "http://purl.oclc.org/ooxml/officeDocument/relationships/officeDocument"

// Part is a named entry of a package.
type Part struct {
	Name    string
	Content []byte

	method   uint16
	modified time.Time
}

// Address returns the part's package-internal URI, e.g. "/word/document.xml".
func (p *Part) Address() string { return "/" + p.Name }

// Package is a mutable, in-memory OOXML package.
type Package struct {
	parts    []*Part
	index    map[string]*Part
	rels     map[string]*Relationships
	types    *contentTypes
	core     *CoreProperties
	corePart string
	closed   bool
}

func newPackage() *Package {
	return &Package{
		index: make(map[string]*Part),
		rels:  make(map[string]*Relationships),
	}
}

func (pkg *Package) addPart(p *Part) {
	pkg.parts = append(pkg.parts, p)
	pkg.index[p.Name] = p
}

// load parses content types, relationship parts and core properties.
func (pkg *Package) load() error {
	ctPart, ok := pkg.index[contentTypesPart]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrInvalidPackage, contentTypesPart)
	}
	types, err := parseContentTypes(ctPart.Content)
	if err != nil {
		return fmt.Errorf("%w: could not parse %s: %v", ErrInvalidPackage, contentTypesPart, err)
	}
	pkg.types = types

	for _, p := range pkg.parts {
		source, ok := relsSource(p.Name)
		if !ok {
			continue
		}
		rels, err := parseRelationships(source, p.Content)
		if err != nil {
			return fmt.Errorf("%w: could not parse %s: %v", ErrInvalidPackage, p.Name, err)
		}
		pkg.rels[source] = rels
	}

	pkg.core = newCoreProperties()
	for _, r := range pkg.Relationships().ByType(RelTypeCoreProperties) {
		if r.Mode() != Internal {
			continue
		}
		name := resolveTarget("", r.Target)
		part, ok := pkg.index[name]
		if !ok {
			continue
		}
		core, err := parseCoreProperties(part.Content)
		if err != nil {
			return fmt.Errorf("%w: could not parse %s: %v", ErrInvalidPackage, name, err)
		}
		pkg.core = core
		pkg.corePart = name
		break
	}
	return nil
}

// Parts returns the package parts in archive order.
func (pkg *Package) Parts() []*Part {
	out := make([]*Part, len(pkg.parts))
	copy(out, pkg.parts)
	return out
}

// Part returns the part with the given name or address.
func (pkg *Package) Part(name string) (*Part, bool) {
	p, ok := pkg.index[strings.TrimPrefix(name, "/")]
	return p, ok
}

// ContentType returns the declared content type of a part.
func (pkg *Package) ContentType(name string) string {
	return pkg.types.lookup(strings.TrimPrefix(name, "/"))
}

// Relationships returns the package-level relationship collection.
func (pkg *Package) Relationships() *Relationships {
	return pkg.relationshipsFor("")
}

// PartRelationships returns the relationship collection owned by a part,
// creating an empty one if the part has no relationship part yet.
func (pkg *Package) PartRelationships(p *Part) *Relationships {
	return pkg.relationshipsFor(p.Name)
}

func (pkg *Package) relationshipsFor(source string) *Relationships {
	rs, ok := pkg.rels[source]
	if !ok {
		rs = newRelationships(source)
		pkg.rels[source] = rs
	}
	return rs
}

// RelationshipCollections returns every non-empty relationship collection:
// the package collection first, then part collections by ascending address.
func (pkg *Package) RelationshipCollections() []*Relationships {
	sources := make([]string, 0, len(pkg.rels))
	for source, rs := range pkg.rels {
		if rs.Len() > 0 {
			sources = append(sources, source)
		}
	}
	sort.Strings(sources)
	out := make([]*Relationships, len(sources))
	for i, s := range sources {
		out[i] = pkg.rels[s]
	}
	return out
}

// ResolveTarget returns the part an internal relationship of rs points at.
func (pkg *Package) ResolveTarget(rs *Relationships, r Relationship) (*Part, error) {
	if r.Mode() == External {
		return nil, fmt.Errorf("relationship %s is external and does not resolve to a part", r.ID)
	}
	name := resolveTarget(rs.source, r.Target)
	p, ok := pkg.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: relationship %s in %s targets missing part /%s", ErrInvalidPackage, r.ID, rs.Source(), name)
	}
	return p, nil
}

// MainPart returns the part the package-level officeDocument relationship points at.
func (pkg *Package) MainPart() (*Part, error) {
	rels := pkg.Relationships()
	for _, relType := range []string{RelTypeOfficeDocument, relTypeOfficeDocumentStrict} {
		for _, r := range rels.ByType(relType) {
			if r.Mode() == Internal {
				return pkg.ResolveTarget(rels, r)
			}
		}
	}
	return nil, fmt.Errorf("%w: no officeDocument relationship in /_rels/.rels", ErrInvalidPackage)
}

// Kind inspects the main part's content type to decide the document family.
// The returned DocType is zero unless the family is supported.
func (pkg *Package) Kind() (Kind, DocType) {
	main, err := pkg.MainPart()
	if err != nil {
		return KindUnknown, DocType{}
	}
	t, kind := typeForContentType(pkg.ContentType(main.Name))
	return kind, t
}

// CoreProperties returns the package metadata. Edits are written on Save.
func (pkg *Package) CoreProperties() *CoreProperties {
	return pkg.core
}

// flush serializes edited relationship collections, core properties and content types into parts.
func (pkg *Package) flush() error {
	if pkg.core.dirty {
		if pkg.corePart == "" {
			pkg.corePart = corePropertiesPart
			pkg.Relationships().Add(RelTypeCoreProperties, corePropertiesPart, Internal)
		}
		pkg.types.ensureOverride(pkg.corePart, ContentTypeCoreProperties)
		pkg.setPart(pkg.corePart, pkg.core.marshal())
		pkg.core.dirty = false
	}

	sources := make([]string, 0, len(pkg.rels))
	for source, rs := range pkg.rels {
		if rs.dirty {
			sources = append(sources, source)
		}
	}
	sort.Strings(sources)
	for _, source := range sources {
		rs := pkg.rels[source]
		data, err := rs.marshal()
		if err != nil {
			return fmt.Errorf("could not serialize relationships of %s: %w", rs.Source(), err)
		}
		pkg.types.ensureDefault("rels", ContentTypeRelationships)
		pkg.setPart(relsPartName(source), data)
		rs.dirty = false
	}

	if pkg.types.dirty {
		data, err := pkg.types.marshal()
		if err != nil {
			return fmt.Errorf("could not serialize %s: %w", contentTypesPart, err)
		}
		pkg.setPart(contentTypesPart, data)
		pkg.types.dirty = false
	}
	return nil
}

func (pkg *Package) setPart(name string, content []byte) {
	if p, ok := pkg.index[name]; ok {
		p.Content = content
		return
	}
	pkg.addPart(&Part{
		Name:     name,
		Content:  content,
		method:   zip.Deflate,
		modified: time.Now(),
	})
}

// Save writes the package as a zip archive. Unedited parts are written byte-for-byte.
func (pkg *Package) Save(w io.Writer) error {
	if pkg.closed {
		return errors.New("package is closed")
	}
	if err := pkg.flush(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, p := range pkg.parts {
		header := &zip.FileHeader{
			Name:   p.Name,
			Method: p.method,
		}
		header.Modified = p.modified
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("could not create %s in output: %w", p.Name, err)
		}
		if _, err := fw.Write(p.Content); err != nil {
			return fmt.Errorf("could not write %s: %w", p.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("could not finalize output archive: %w", err)
	}
	return nil
}

// Bytes returns the serialized package.
func (pkg *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := pkg.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveFile writes the package to path. The file only appears once fully written.
func (pkg *Package) SaveFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".doctrack-*")
	if err != nil {
		return fmt.Errorf("could not create output in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := pkg.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("could not set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// Close releases the package contents. A closed package cannot be saved.
func (pkg *Package) Close() error {
	pkg.parts = nil
	pkg.index = nil
	pkg.closed = true
	return nil
}
