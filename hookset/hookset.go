// Package hookset implements declarative hook-manifest documents: a
// YAML serialization of a hook's name, ordering constraints, and
// interest clauses, analogous to the teacher's YAML-serializable
// core.Spec. Manifests are loaded offline by cmd/wphookctl and by tests;
// the embedded scripting runtime that would actually author a hook's
// executor body is out of scope (§1), so a manifest describes matching
// and ordering only -- the runtime wiring of Sync/Async closures still
// happens in Go.
package hookset

import (
	"fmt"

	"wireplumber/interest"

	"gopkg.in/yaml.v3"
)

// ConstraintDoc is one constraint clause in a manifest.
type ConstraintDoc struct {
	Subject  string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Key      string   `json:"key" yaml:"key"`
	Op       string   `json:"op" yaml:"op"`
	Operand  string   `json:"operand,omitempty" yaml:"operand,omitempty"`
	Operands []string `json:"operands,omitempty" yaml:"operands,omitempty"`
}

// InterestDoc is one ObjectInterest clause in a manifest.
type InterestDoc struct {
	TypeTag     string          `json:"typeTag" yaml:"typeTag"`
	Constraints []ConstraintDoc `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// HookDoc is a single hook's manifest entry: name, ordering
// constraints, and the interest-set it matches on.
type HookDoc struct {
	Name      string        `json:"name" yaml:"name"`
	Before    []string      `json:"before,omitempty" yaml:"before,omitempty"`
	After     []string      `json:"after,omitempty" yaml:"after,omitempty"`
	Async     bool          `json:"async,omitempty" yaml:"async,omitempty"`
	Doc       string        `json:"doc,omitempty" yaml:"doc,omitempty"`
	Interests []InterestDoc `json:"interests" yaml:"interests"`
}

// Manifest is a named collection of hook manifests, the unit
// cmd/wphookctl validates, orders, and documents.
type Manifest struct {
	Name  string    `json:"name,omitempty" yaml:"name,omitempty"`
	Hooks []HookDoc `json:"hooks" yaml:"hooks"`
}

// Parse decodes a YAML-encoded Manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("hookset: parse manifest: %w", err)
	}
	return &m, nil
}

// Marshal encodes m as YAML.
func Marshal(m *Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

var operatorNames = map[string]interest.Operator{
	"equals":        interest.Equals,
	"not-equals":    interest.NotEquals,
	"in-list":       interest.InList,
	"matches-glob":  interest.MatchesGlob,
	"present":       interest.Present,
	"absent":        interest.Absent,
	"less":          interest.Less,
	"less-equal":    interest.LessOrEqual,
	"greater":       interest.Greater,
	"greater-equal": interest.GreaterOrEqual,
}

// BuildInterest converts an InterestDoc into an *interest.ObjectInterest.
func BuildInterest(doc InterestDoc) (*interest.ObjectInterest, error) {
	b := interest.NewBuilder(doc.TypeTag)
	for _, c := range doc.Constraints {
		op, known := operatorNames[c.Op]
		if !known {
			return nil, fmt.Errorf("hookset: unknown operator %q", c.Op)
		}
		subject := interest.SubjectProperty
		if c.Subject == "global" {
			subject = interest.SubjectGlobal
		}
		if op == interest.InList {
			b = b.AddListConstraint(c.Key, c.Operands)
			continue
		}
		if subject == interest.SubjectGlobal {
			b = b.AddGlobalConstraint(c.Key, op, c.Operand)
		} else {
			b = b.AddConstraint(c.Key, op, c.Operand)
		}
	}
	return b.Build(), nil
}

// BuildInterests converts every InterestDoc in docs.
func BuildInterests(docs []InterestDoc) ([]*interest.ObjectInterest, error) {
	out := make([]*interest.ObjectInterest, 0, len(docs))
	for _, d := range docs {
		oi, err := BuildInterest(d)
		if err != nil {
			return nil, err
		}
		out = append(out, oi)
	}
	return out, nil
}
