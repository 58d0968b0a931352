package watch

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/leftp/doctrack/internal/ooxml"
)

type ruleFile struct {
	Rules []struct {
		ID       string         `yaml:"id"`
		Pattern  string         `yaml:"pattern"`
		Types    []string       `yaml:"types"`
		URL      string         `yaml:"url"`
		Template bool           `yaml:"template"`
		Metadata map[string]any `yaml:"metadata"`
		Enabled  *bool          `yaml:"enabled"`
	} `yaml:"rules"`
}

// LoadRules reads a YAML rules file:
//
//	rules:
//	  - id: contracts
//	    pattern: "contract_*"
//	    types: [docx]
//	    url: https://t.example.com/c.png
//
// Rules are enabled unless they say otherwise. Ids default to rule-<n>.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read rules file: %w", err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, r := range f.Rules {
		rule := Rule{
			ID:       r.ID,
			Pattern:  r.Pattern,
			Types:    r.Types,
			URL:      r.URL,
			Template: r.Template,
			Metadata: r.Metadata,
			Enabled:  r.Enabled == nil || *r.Enabled,
		}
		if rule.ID == "" {
			rule.ID = fmt.Sprintf("rule-%d", i+1)
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Validate checks that the rule names known types, a usable pattern, and does
// something.
func (r Rule) Validate() error {
	for _, t := range r.Types {
		if _, err := ooxml.LookupType(t); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	if r.Pattern != "" {
		if _, err := filepath.Match(r.Pattern, ""); err != nil {
			return fmt.Errorf("rule %s: bad pattern %q: %w", r.ID, r.Pattern, err)
		}
	}
	if r.Template && r.URL == "" {
		return fmt.Errorf("rule %s: template requires url", r.ID)
	}
	if r.URL == "" && len(r.Metadata) == 0 {
		return fmt.Errorf("rule %s: needs a url or metadata", r.ID)
	}
	return nil
}
