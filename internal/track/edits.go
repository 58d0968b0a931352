package track

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leftp/doctrack/internal/ooxml"
)

// Edits is everything one invocation asks the editor to change.
type Edits struct {
	// Metadata is merged into the core properties; nil leaves them alone.
	Metadata map[string]any
	// URL is the external target to insert; empty skips relationship editing.
	URL string
	// Template selects template insertion instead of tracking insertion.
	Template bool
}

// Report summarizes what ApplyEdits changed.
type Report struct {
	Metadata     *MetadataResult      `json:"metadata,omitempty"`
	Relationship *RelationshipChange `json:"relationship,omitempty"`
}

// RelationshipChange describes the relationship added or rewritten.
type RelationshipChange struct {
	Owner     string `json:"owner"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Target    string `json:"target"`
	Rewritten bool   `json:"rewritten"`
}

// ApplyEdits applies metadata first, then the relationship edit.
func ApplyEdits(cfg Edits, t Target) (*Report, error) {
	report := &Report{}

	if cfg.Metadata != nil {
		res := ApplyMetadata(t.Package(), cfg.Metadata)
		report.Metadata = &res
	}

	if cfg.URL == "" {
		return report, nil
	}

	var (
		r         ooxml.Relationship
		owner     *ooxml.Part
		rewritten bool
		err       error
	)
	if cfg.Template {
		r, owner, rewritten, err = upsertTemplate(t, cfg.URL)
	} else {
		owner = t.RootPart()
		r, err = InsertTrackingRelationship(t, cfg.URL)
	}
	if err != nil {
		return nil, err
	}

	report.Relationship = &RelationshipChange{
		Owner:     owner.Address(),
		ID:        r.ID,
		Type:      r.Type,
		Target:    r.Target,
		Rewritten: rewritten,
	}
	return report, nil
}

// LookupType resolves a document type name, classifying failures.
func LookupType(name string) (ooxml.DocType, error) {
	if name == "" {
		return ooxml.DocType{}, fmt.Errorf("%w: document type is required — use --type (%s)", ErrConfiguration, joinTypes())
	}
	t, err := ooxml.LookupType(name)
	if err != nil {
		return ooxml.DocType{}, fmt.Errorf("%w: %v", ErrUnsupportedKind, err)
	}
	return t, nil
}

// Load opens path read-only, clones it into memory, closes the source and
// classifies the clone. The package family must match the declared type.
func Load(path string, declared ooxml.DocType) (*ooxml.Package, Target, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("%w: input file is required", ErrConfiguration)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: file not found: %s — check that the path is correct", ErrConfiguration, path)
	}

	archive, err := ooxml.Open(path)
	if err != nil {
		return nil, nil, classifyOpenError(path, declared, err)
	}
	pkg, err := archive.Clone()
	closeErr := archive.Close()
	if err != nil {
		return nil, nil, classifyOpenError(path, declared, err)
	}
	if closeErr != nil {
		return nil, nil, fmt.Errorf("could not close %s: %w", path, closeErr)
	}

	t, err := Classify(pkg)
	if err != nil {
		pkg.Close()
		if errors.Is(err, ErrMalformedPackage) {
			return nil, nil, typeMismatch(path, declared, err)
		}
		return nil, nil, err
	}

	if t.DocType().Kind != declared.Kind {
		pkg.Close()
		return nil, nil, fmt.Errorf("%w: type mismatch — %s was declared as %s (%s) but is a %s (%s)",
			ErrUnsupportedKind, path, declared.Name, declared.Kind, t.DocType().Kind, t.DocType().Name)
	}
	return pkg, t, nil
}

func classifyOpenError(path string, declared ooxml.DocType, err error) error {
	if errors.Is(err, ooxml.ErrInvalidPackage) {
		return typeMismatch(path, declared, err)
	}
	return err
}

func typeMismatch(path string, declared ooxml.DocType, err error) error {
	return fmt.Errorf("%w: could not open %s as %s — the file type does not match or the package is corrupt: %v",
		ErrMalformedPackage, path, declared.Name, err)
}

func joinTypes() string {
	return strings.Join(ooxml.TypeNames(), ", ")
}
