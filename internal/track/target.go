// Package track injects external relationships into OOXML packages and
// edits their core properties.
//
// The editor works against the Target capability interface, implemented by
// DocumentPackage and WorkbookPackage. Callers obtain a Target with Classify
// (or Load, which also opens and clones the file) and never branch on the
// document type themselves.
package track

import (
	"errors"
	"fmt"

	"github.com/leftp/doctrack/internal/logger"
	"github.com/leftp/doctrack/internal/ooxml"
)

// Relationship type URIs written by the editor.
const (
	RelTypeImage            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeExternalLinkPath = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/externalLinkPath"
	RelTypeAttachedTemplate = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/attachedTemplate"
)

// RelationshipTypes names the relationship types a family uses for each insertion mode.
type RelationshipTypes struct {
	Tracking string
	Template string
}

// Target is an editable package of a supported family.
type Target interface {
	// Package returns the underlying mutable package.
	Package() *ooxml.Package
	// DocType returns the concrete type detected from the main part.
	DocType() ooxml.DocType
	// RootPart is the main document or workbook part.
	RootPart() *ooxml.Part
	// TemplateOwner is the part whose relationships hold the template link.
	TemplateOwner() *ooxml.Part
	// TemplateParts lists every part an existing template link may hang off,
	// TemplateOwner first.
	TemplateParts() []*ooxml.Part
	// RelationshipTypes returns the family's relationship vocabulary.
	RelationshipTypes() RelationshipTypes
}

// DocumentPackage is a word-processing package.
type DocumentPackage struct {
	pkg      *ooxml.Package
	docType  ooxml.DocType
	main     *ooxml.Part
	settings *ooxml.Part
}

func (d *DocumentPackage) Package() *ooxml.Package { return d.pkg }
func (d *DocumentPackage) DocType() ooxml.DocType  { return d.docType }
func (d *DocumentPackage) RootPart() *ooxml.Part   { return d.main }

// TemplateOwner returns the settings part when present, since that is where
// word processors look for attachedTemplate; otherwise the main part.
func (d *DocumentPackage) TemplateOwner() *ooxml.Part {
	if d.settings != nil {
		return d.settings
	}
	return d.main
}

// TemplateParts returns the settings part and the main part. Older producers
// attach the template to the main part even when settings exist.
func (d *DocumentPackage) TemplateParts() []*ooxml.Part {
	if d.settings != nil {
		return []*ooxml.Part{d.settings, d.main}
	}
	return []*ooxml.Part{d.main}
}

func (d *DocumentPackage) RelationshipTypes() RelationshipTypes {
	return RelationshipTypes{Tracking: RelTypeImage, Template: RelTypeAttachedTemplate}
}

// WorkbookPackage is a spreadsheet package.
type WorkbookPackage struct {
	pkg      *ooxml.Package
	docType  ooxml.DocType
	workbook *ooxml.Part
}

func (w *WorkbookPackage) Package() *ooxml.Package    { return w.pkg }
func (w *WorkbookPackage) DocType() ooxml.DocType     { return w.docType }
func (w *WorkbookPackage) RootPart() *ooxml.Part      { return w.workbook }
func (w *WorkbookPackage) TemplateOwner() *ooxml.Part { return w.workbook }

func (w *WorkbookPackage) TemplateParts() []*ooxml.Part { return []*ooxml.Part{w.workbook} }

func (w *WorkbookPackage) RelationshipTypes() RelationshipTypes {
	return RelationshipTypes{Tracking: RelTypeExternalLinkPath, Template: RelTypeAttachedTemplate}
}

// Classify inspects the package structure and returns its Target.
func Classify(pkg *ooxml.Package) (Target, error) {
	main, err := pkg.MainPart()
	if err != nil {
		return nil, malformed(err)
	}

	kind, docType := pkg.Kind()
	switch kind {
	case ooxml.KindDocument:
		d := &DocumentPackage{pkg: pkg, docType: docType, main: main}
		rels := pkg.PartRelationships(main)
		for _, r := range rels.ByType(ooxml.RelTypeSettings) {
			if r.Mode() != ooxml.Internal {
				continue
			}
			settings, err := pkg.ResolveTarget(rels, r)
			if err != nil {
				logger.Warn("ignoring settings link %s: %v; the main part will own the template", r.ID, err)
				continue
			}
			d.settings = settings
			break
		}
		return d, nil
	case ooxml.KindWorkbook:
		return &WorkbookPackage{pkg: pkg, docType: docType, workbook: main}, nil
	case ooxml.KindPresentation:
		return nil, fmt.Errorf("%w: presentations are not supported — only documents and workbooks", ErrUnsupportedKind)
	default:
		return nil, fmt.Errorf("%w: main part %s has content type %q", ErrUnsupportedKind, main.Address(), pkg.ContentType(main.Name))
	}
}

func malformed(err error) error {
	if errors.Is(err, ErrMalformedPackage) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrMalformedPackage, err)
}
