package hookset

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderHTMLIncludesHookNamesInOrder(t *testing.T) {
	m := &Manifest{
		Name: "test-manifest",
		Hooks: []HookDoc{
			{Name: "second", After: []string{"first"}, Doc: "runs **second**"},
			{Name: "first"},
		},
	}
	ordered, cyclic, err := Order(m.Hooks)
	if err != nil || len(cyclic) != 0 {
		t.Fatalf("unexpected order error: %v cyclic=%v", err, cyclic)
	}

	var buf bytes.Buffer
	if err := RenderHTML(m, ordered, &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()

	firstIdx := strings.Index(html, "first")
	secondIdx := strings.Index(html, "second")
	if firstIdx == -1 || secondIdx == -1 || firstIdx > secondIdx {
		t.Fatalf("expected first before second in rendered output:\n%s", html)
	}
	if !strings.Contains(html, "<strong>second</strong>") {
		t.Fatalf("expected markdown rendering of hook doc, got:\n%s", html)
	}
}
