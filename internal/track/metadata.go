package track

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/leftp/doctrack/internal/ooxml"
)

// MetadataResult reports what ApplyMetadata did with each key.
type MetadataResult struct {
	Applied  []string `json:"applied"`
	Skipped  []string `json:"skipped,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// isoLayouts are the ISO-8601 forms accepted for date fields.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ApplyMetadata merges kv into the package core properties. Keys match field
// names case-insensitively. Unknown keys are skipped; a value that cannot be
// converted leaves its field unchanged and adds a warning. A null value clears
// the field.
func ApplyMetadata(pkg *ooxml.Package, kv map[string]any) MetadataResult {
	var res MetadataResult
	core := pkg.CoreProperties()

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := ooxml.LookupProperty(key)
		if !ok {
			res.Skipped = append(res.Skipped, key)
			continue
		}
		value := kv[key]
		if value == nil {
			core.Clear(field.Name)
			res.Applied = append(res.Applied, field.Name)
			continue
		}

		var err error
		switch field.Kind {
		case ooxml.PropertyDate:
			var t time.Time
			if t, err = toDate(value); err == nil {
				err = core.SetDate(field.Name, t)
			}
		default:
			var s string
			if s, err = cast.ToStringE(value); err == nil {
				err = core.SetText(field.Name, s)
			}
		}
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s left unchanged: %v", field.Name, err))
			continue
		}
		res.Applied = append(res.Applied, field.Name)
	}
	return res
}

func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		return parseISO8601(d)
	default:
		return time.Time{}, fmt.Errorf("expected an ISO-8601 date string, got %T", v)
	}
}

func parseISO8601(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date (e.g. 2024-05-01 or 2024-05-01T10:00:00Z)", s)
}
