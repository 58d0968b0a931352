package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is the org-wide layer deployed by administrators. It restricts which
// hosts tracking and template URLs may point at and can force auditing and
// verification for every user.
type Policy struct {
	OrgName string `yaml:"org_name" json:"org_name"`

	// AllowedHosts limits target URLs to these hosts. An entry starting with
	// "." also matches every subdomain. Empty allows any host.
	AllowedHosts []string `yaml:"allowed_hosts" json:"allowed_hosts"`

	Locked struct {
		Verify bool `yaml:"verify" json:"verify"`
	} `yaml:"locked" json:"locked"`

	Audit struct {
		Enabled  bool   `yaml:"enabled" json:"enabled"`
		FilePath string `yaml:"file_path" json:"file_path"`
	} `yaml:"audit" json:"audit"`
}

// PolicyPath returns the platform-specific path for the org policy.
func PolicyPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("ProgramData"), "doctrack", "policy.yaml")
	}
	return "/etc/doctrack/policy.yaml"
}

// LoadPolicy reads the org policy. Returns nil (not error) if the file does not exist.
func LoadPolicy() (*Policy, error) {
	return LoadPolicyFrom(PolicyPath())
}

// LoadPolicyFrom reads the org policy from a specific path.
func LoadPolicyFrom(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read org policy at %s: %w", path, err)
	}

	p, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("invalid org policy at %s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes a policy document.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ValidatePolicy checks that a policy is usable.
func ValidatePolicy(p *Policy) []string {
	var issues []string
	if p.OrgName == "" {
		issues = append(issues, "org_name is required")
	}
	for _, h := range p.AllowedHosts {
		if h == "" || h == "." || strings.ContainsAny(h, "/:") {
			issues = append(issues, fmt.Sprintf("allowed_hosts entry %q must be a bare host name", h))
		}
	}
	return issues
}

// AllowsTarget reports whether target may be written into a package.
// Targets without a host (file:///...) are allowed only when no host list is set.
func (p *Policy) AllowsTarget(target string) bool {
	if p == nil || len(p.AllowedHosts) == 0 {
		return true
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, allowed := range p.AllowedHosts {
		allowed = strings.ToLower(allowed)
		if strings.HasPrefix(allowed, ".") {
			if host == allowed[1:] || strings.HasSuffix(host, allowed) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}

// AuditLogPath returns the resolved audit log path, or "" when the policy does
// not name one.
func (p *Policy) AuditLogPath() string {
	if p == nil || p.Audit.FilePath == "" {
		return ""
	}
	return ExpandHome(p.Audit.FilePath)
}

// GeneratePolicyTemplate returns a YAML template for the org policy.
func GeneratePolicyTemplate(orgName string) string {
	return fmt.Sprintf(`# doctrack organization policy
# Deploy to: %s
# Permissions: readable by all users, writable only by root/Administrators

org_name: %q

# allowed_hosts: []  # empty = any host; ".example.com" matches subdomains

locked:
  verify: false

audit:
  enabled: true
  file_path: "~/.doctrack/audit.log"
`, PolicyPath(), orgName)
}
