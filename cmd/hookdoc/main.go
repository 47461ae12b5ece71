// Command hookdoc renders a hook manifest's name/interest/ordering
// documentation to HTML, the same role tools/spec-html.go plays for
// sheens specs.
package main

import (
	"flag"
	"fmt"
	"os"

	"wireplumber/hookset"
)

func main() {
	out := flag.String("o", "", "write HTML to this file instead of stdout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: hookdoc [-o file] <manifest.yaml>")
		os.Exit(1)
	}

	if err := run(flag.Arg(0), *out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path, out string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("hookdoc: %w", err)
	}

	manifest, err := hookset.Parse(data)
	if err != nil {
		return fmt.Errorf("hookdoc: %w", err)
	}

	ordered, _, _ := hookset.Order(manifest.Hooks)

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("hookdoc: %w", err)
		}
		defer f.Close()
		w = f
	}

	return hookset.RenderHTML(manifest, ordered, w)
}
