// Package fieldrules loads the per-field rule definitions consumed by the
// tier processor. A default rule set ships embedded in the binary; a rules
// directory can override or extend it with one <field>.yaml file per rule.
package fieldrules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "embed"

	"github.com/goccy/go-yaml"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/types"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// ruleFile is the on-disk shape of the embedded default rule set.
type ruleFile struct {
	Rules []types.FieldRule `yaml:"rules"`
}

// Provider resolves field rules by ID. It satisfies the tier processor's
// rule-provider contract.
type Provider struct {
	rules map[types.FieldID]types.FieldRule
}

// NewProvider loads the embedded defaults, then applies overrides from dir
// when it is non-empty. Every *.yaml file in dir holds one rule; a rule with
// a field ID already known replaces the default.
func NewProvider(dir string) (*Provider, error) {
	var file ruleFile
	if err := yaml.Unmarshal(defaultRulesYAML, &file); err != nil {
		return nil, errors.WrapParse("yaml", "embedded field rules", err)
	}

	p := &Provider{rules: make(map[types.FieldID]types.FieldRule, len(file.Rules))}
	for _, rule := range file.Rules {
		if err := rule.Validate(); err != nil {
			return nil, errors.WrapParse("yaml", "embedded field rules", err)
		}
		p.rules[rule.Field] = rule
	}

	if dir != "" {
		if err := p.loadDir(dir); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// loadDir reads rule overrides from every yaml file in dir.
func (p *Provider) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WrapIO("read", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.WrapIO("read", path, err)
		}
		var rule types.FieldRule
		if err := yaml.Unmarshal(data, &rule); err != nil {
			return errors.WrapParse("yaml", path, err)
		}
		if err := rule.Validate(); err != nil {
			return errors.WrapParse("yaml", path, err)
		}
		p.rules[rule.Field] = rule
	}
	return nil
}

// Rule returns the rule for a field.
func (p *Provider) Rule(field types.FieldID) (types.FieldRule, error) {
	rule, ok := p.rules[field]
	if !ok {
		return types.FieldRule{}, fmt.Errorf("no rule defined for field %q: %w", field, errors.ErrNotFound)
	}
	return rule, nil
}

// Fields returns the known field IDs in sorted order.
func (p *Provider) Fields() []types.FieldID {
	ids := make([]types.FieldID, 0, len(p.rules))
	for id := range p.rules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
