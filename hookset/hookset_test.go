package hookset

import (
	"testing"

	"wireplumber/props"
)

const sample = `
name: session-policy
hooks:
  - name: link-audio
    after: [select-target]
    interests:
      - typeTag: Node
        constraints:
          - key: media.class
            op: matches-glob
            operand: "Audio/*"
`

func TestParseAndBuild(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "session-policy" || len(m.Hooks) != 1 {
		t.Fatalf("unexpected manifest: %+v", m)
	}

	h := m.Hooks[0]
	if h.Name != "link-audio" || len(h.After) != 1 || h.After[0] != "select-target" {
		t.Fatalf("unexpected hook doc: %+v", h)
	}

	interests, err := BuildInterests(h.Interests)
	if err != nil {
		t.Fatal(err)
	}
	if len(interests) != 1 {
		t.Fatalf("expected 1 interest")
	}

	p, _ := props.FromPairs("media.class", "Audio/Sink")
	if !interests[0].Matches("Node", p, nil) {
		t.Fatalf("expected built interest to match")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if m2.Name != m.Name || len(m2.Hooks) != len(m.Hooks) {
		t.Fatalf("round trip mismatch")
	}
}

func TestUnknownOperator(t *testing.T) {
	_, err := BuildInterest(InterestDoc{
		TypeTag: "Node",
		Constraints: []ConstraintDoc{
			{Key: "x", Op: "bogus"},
		},
	})
	if err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}
