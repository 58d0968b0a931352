package track

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/leftp/doctrack/internal/ooxml"
)

// InsertTrackingRelationship appends a new external relationship of the
// family's tracking type to the root part. Existing relationships are never
// deduplicated: every call adds one more.
func InsertTrackingRelationship(t Target, rawURL string) (ooxml.Relationship, error) {
	target, err := NormalizeTarget(rawURL)
	if err != nil {
		return ooxml.Relationship{}, err
	}
	rels := t.Package().PartRelationships(t.RootPart())
	return rels.Add(t.RelationshipTypes().Tracking, target, ooxml.External), nil
}

// InsertTemplateRelationship points the package's template link at rawURL.
// At most one template relationship exists per package: an existing one is
// rewritten in place (id kept, mode forced to External), otherwise one is added.
func InsertTemplateRelationship(t Target, rawURL string) (ooxml.Relationship, error) {
	r, _, _, err := upsertTemplate(t, rawURL)
	return r, err
}

// upsertTemplate looks for template relationships on every candidate part.
// The first one found is rewritten on the part that holds it and every other
// one is removed, wherever it lives. It returns the relationship, its owning
// part and whether it was rewritten rather than added.
func upsertTemplate(t Target, rawURL string) (ooxml.Relationship, *ooxml.Part, bool, error) {
	target, err := NormalizeTarget(rawURL)
	if err != nil {
		return ooxml.Relationship{}, nil, false, err
	}

	pkg := t.Package()
	relType := t.RelationshipTypes().Template

	var (
		kept      ooxml.Relationship
		keptOwner *ooxml.Part
	)
	for _, part := range t.TemplateParts() {
		rels := pkg.PartRelationships(part)
		for _, r := range rels.ByType(relType) {
			if keptOwner == nil {
				if err := rels.SetTarget(r.ID, target, ooxml.External); err != nil {
					return ooxml.Relationship{}, nil, false, err
				}
				kept, _ = rels.Get(r.ID)
				keptOwner = part
				continue
			}
			rels.Remove(r.ID)
		}
	}
	if keptOwner != nil {
		return kept, keptOwner, true, nil
	}

	owner := t.TemplateOwner()
	r := pkg.PartRelationships(owner).Add(relType, target, ooxml.External)
	return r, owner, false, nil
}

// NormalizeTarget checks that raw is an absolute URI and returns the form
// written to the package. UNC paths (\\host\share\file) become file:// URIs.
func NormalizeTarget(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidTarget)
	}
	if strings.HasPrefix(s, `\\`) {
		s = "file://" + strings.ReplaceAll(strings.TrimPrefix(s, `\\`), `\`, "/")
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTarget, raw, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute — include a scheme such as https://", ErrInvalidTarget, raw)
	}
	if len(u.Scheme) == 1 {
		return "", fmt.Errorf("%w: %q looks like a local path — use file:///%s", ErrInvalidTarget, raw, strings.ReplaceAll(s, `\`, "/"))
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp", "smb":
		if u.Host == "" {
			return "", fmt.Errorf("%w: %q has no host", ErrInvalidTarget, raw)
		}
	}
	return s, nil
}
