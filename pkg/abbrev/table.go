// Package abbrev provides the street-name abbreviation table used to correct
// entrance addresses, and a registry that loads and hot-reloads it from YAML.
package abbrev

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule expands a street name starting with Prefix to Full.
type Rule struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Full   string `yaml:"full" json:"full"`
}

// Validate checks that the rule can be applied.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Prefix) == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.TrimSpace(r.Full) == "" {
		return fmt.Errorf("full name is required for prefix %q", r.Prefix)
	}
	return nil
}

// Table is an ordered, immutable list of rules. The first matching rule
// wins. The zero value is an empty table.
type Table struct {
	rules []Rule
}

// tableFile is the on-disk layout of a rules file.
type tableFile struct {
	Abbreviations []Rule `yaml:"abbreviations"`
}

// NewTable builds a table from rules, rejecting invalid ones.
func NewTable(rules ...Rule) (Table, error) {
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return Table{}, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return Table{rules: append([]Rule(nil), rules...)}, nil
}

// MustTable is like NewTable but panics on invalid rules.
func MustTable(rules ...Rule) Table {
	t, err := NewTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse decodes a YAML rules document.
func Parse(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, fmt.Errorf("parsing YAML: %w", err)
	}
	return NewTable(f.Abbreviations...)
}

// LoadFile reads a YAML rules file.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading file: %w", err)
	}
	return Parse(data)
}

// Len returns the number of rules.
func (t Table) Len() int {
	return len(t.rules)
}

// Merge returns a table with t's rules followed by other's.
func (t Table) Merge(other Table) Table {
	merged := make([]Rule, 0, len(t.rules)+len(other.rules))
	merged = append(merged, t.rules...)
	merged = append(merged, other.rules...)
	return Table{rules: merged}
}

// Expand returns the full name for a street starting with a known prefix.
func (t Table) Expand(street string) (string, bool) {
	for _, r := range t.rules {
		if strings.HasPrefix(street, r.Prefix) {
			return r.Full, true
		}
	}
	return street, false
}
