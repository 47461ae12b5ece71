package hookset

import (
	"fmt"
	"io"

	md "github.com/russross/blackfriday/v2"
)

// RenderHTML renders a manifest as a standalone HTML page: its own Doc
// string, followed by one row per hook in ordered (falling back to
// manifest order for any hook Order could not place, e.g. because of a
// cycle), showing that hook's doc, before/after constraints, and
// interest clauses. This is the manifest-authoring counterpart to the
// live dispatcher's scheduling: it shows what would run, and in what
// order, without executing anything.
func RenderHTML(m *Manifest, ordered []string, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	byName := make(map[string]HookDoc, len(m.Hooks))
	for _, h := range m.Hooks {
		byName[h.Name] = h
	}

	rows := append([]string(nil), ordered...)
	placed := make(map[string]bool, len(rows))
	for _, n := range rows {
		placed[n] = true
	}
	for _, h := range m.Hooks {
		if !placed[h.Name] {
			placed[h.Name] = true
			rows = append(rows, h.Name)
		}
	}

	title := m.Name
	if title == "" {
		title = "hook manifest"
	}

	f(`<!DOCTYPE html>`)
	f(`<meta charset="utf-8">`)
	f(`<html><head><title>%s</title></head><body>`, title)
	f(`<h1>%s</h1>`, title)
	f(`<table border="1" cellpadding="4">`)
	f(`<tr><th>order</th><th>hook</th><th>before</th><th>after</th><th>doc</th><th>interests</th></tr>`)

	for i, name := range rows {
		h, known := byName[name]
		if !known {
			continue
		}
		f(`<tr id="%s">`, name)
		f(`<td>%d</td>`, i+1)
		f(`<td><code>%s</code></td>`, name)
		f(`<td>%s</td>`, joinCodes(h.Before))
		f(`<td>%s</td>`, joinCodes(h.After))
		if h.Doc != "" {
			f(`<td>%s</td>`, md.Run([]byte(h.Doc)))
		} else {
			f(`<td></td>`)
		}
		f(`<td>%s</td>`, renderInterests(h.Interests))
		f(`</tr>`)
	}

	f(`</table>`)
	f(`</body></html>`)
	return nil
}

func joinCodes(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += "<code>" + n + "</code>"
	}
	return out
}

func renderInterests(docs []InterestDoc) string {
	out := ""
	for _, d := range docs {
		out += fmt.Sprintf("<div><code>%s</code><ul>", d.TypeTag)
		for _, c := range d.Constraints {
			operand := c.Operand
			if len(c.Operands) > 0 {
				operand = joinCodes(c.Operands)
			}
			out += fmt.Sprintf("<li>%s %s %s</li>", c.Key, c.Op, operand)
		}
		out += "</ul></div>"
	}
	return out
}
