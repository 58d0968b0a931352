package track

import (
	"iter"
	"time"

	"github.com/leftp/doctrack/internal/ooxml"
)

// ExternalRelationship locates one external relationship in a package.
type ExternalRelationship struct {
	Owner  string `json:"owner"`
	ID     string `json:"id"`
	Type   string `json:"type"`
	Target string `json:"target"`
}

// ListExternalRelationships yields every External relationship of the package:
// the package collection first, then each part's collection by address. The
// sequence walks the package afresh every time it is ranged over.
func ListExternalRelationships(pkg *ooxml.Package) iter.Seq[ExternalRelationship] {
	return func(yield func(ExternalRelationship) bool) {
		for _, rs := range pkg.RelationshipCollections() {
			for _, r := range rs.All() {
				if r.Mode() != ooxml.External {
					continue
				}
				if !yield(ExternalRelationship{Owner: rs.Source(), ID: r.ID, Type: r.Type, Target: r.Target}) {
					return
				}
			}
		}
	}
}

// Property is one metadata field for display.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Properties returns every core property in display order; unset fields have an empty value.
func Properties(pkg *ooxml.Package) []Property {
	core := pkg.CoreProperties()
	props := make([]Property, 0, len(ooxml.PropertyFields))
	for _, f := range ooxml.PropertyFields {
		p := Property{Name: f.Name}
		if f.Kind == ooxml.PropertyDate {
			if t, ok := core.Date(f.Name); ok {
				p.Value = t.Format(time.RFC3339)
			} else if raw, ok := core.Get(f.Name); ok {
				p.Value = raw
			}
		} else {
			p.Value, _ = core.Get(f.Name)
		}
		props = append(props, p)
	}
	return props
}
