package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/leftp/doctrack/internal/ooxml"
)

// Issue represents a validation finding.
type Issue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Keys lists every configuration key doctrack understands, in display order.
var Keys = []string{
	"type",
	"verify",
	"output.suffix",
	"output.dir",
	"audit.enabled",
	"audit.file",
	"watch.debounce_ms",
	"watch.recursive",
}

// Validate checks config values and returns a list of issues.
func Validate() []Issue {
	var issues []Issue

	if t := viper.GetString("type"); t != "" {
		if _, err := ooxml.LookupType(t); err != nil {
			issues = append(issues, Issue{
				Key:      "type",
				Severity: "error",
				Message:  fmt.Sprintf("default type %q is not supported", t),
				Fix:      "doctrack config set type docx  (see: doctrack types)",
			})
		} else {
			issues = append(issues, Issue{
				Key:      "type",
				Severity: "info",
				Message:  fmt.Sprintf("default type is %s", t),
			})
		}
	}

	suffix := viper.GetString("output.suffix")
	if suffix == "" {
		issues = append(issues, Issue{
			Key:      "output.suffix",
			Severity: "error",
			Message:  "output.suffix is empty — watch mode would overwrite its inputs",
			Fix:      "doctrack config set output.suffix " + DefaultSuffix,
		})
	} else if strings.ContainsAny(suffix, `/\`) {
		issues = append(issues, Issue{
			Key:      "output.suffix",
			Severity: "error",
			Message:  fmt.Sprintf("output.suffix %q must not contain a path separator", suffix),
		})
	}

	if viper.GetInt("watch.debounce_ms") < 0 {
		issues = append(issues, Issue{
			Key:      "watch.debounce_ms",
			Severity: "error",
			Message:  "watch.debounce_ms must not be negative",
		})
	}

	if viper.GetBool("audit.enabled") {
		dir := filepath.Dir(ExpandHome(viper.GetString("audit.file")))
		if _, err := os.Stat(dir); err != nil {
			issues = append(issues, Issue{
				Key:      "audit.file",
				Severity: "warning",
				Message:  fmt.Sprintf("audit log directory %s does not exist yet", dir),
				Fix:      "mkdir -p " + dir,
			})
		}
	}

	return issues
}

// ToEnv returns all set config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range Keys {
		if v := viper.GetString(key); v != "" {
			env[EnvName(key)] = v
		}
	}
	return env
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return "DOCTRACK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if !known(key) {
		return fmt.Errorf("unknown config key %q — valid keys: %s", key, strings.Join(Keys, ", "))
	}
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

func known(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Init writes a config file holding the defaults.
func Init() error {
	setDefaults()
	return SaveConfig()
}

// ResetConfig deletes the config file and restores the defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for _, key := range Keys {
		viper.Set(key, nil)
	}
	setDefaults()
	return nil
}

// SaveConfig writes the current config to ~/.doctrack/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	groups := map[string][]string{}
	var names []string
	for _, key := range Keys {
		group, field := "general", key
		if i := strings.IndexByte(key, '.'); i >= 0 {
			group, field = key[:i], key[i+1:]
		}
		if _, ok := groups[group]; !ok {
			names = append(names, group)
		}
		groups[group] = append(groups[group], field)
	}
	sort.SliceStable(names, func(i, j int) bool { return names[i] == "general" && names[j] != "general" })

	for _, group := range names {
		sb.WriteString(group + "\n")
		for _, field := range groups[group] {
			key := field
			if group != "general" {
				key = group + "." + field
			}
			val := viper.GetString(key)
			if val == "" {
				val = "(not set)"
			}
			sb.WriteString(fmt.Sprintf("  %-12s %s\n", field+":", val))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
