package ui

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pleimann/camel-arbiter/internal/config"
	"github.com/pleimann/camel-arbiter/internal/input"
)

// PrintSchemes writes a summary of the built schemes: their actions,
// bindings and wrapper flags, then every control path claimed by more than
// one scheme.
func PrintSchemes(w io.Writer, schemes []*input.Scheme, controls []config.Control, tapDelay string) {
	if len(schemes) == 0 {
		fmt.Fprintln(w, Warning("No schemes configured"))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, Title("Schemes"))
	fmt.Fprintln(w, Muted(fmt.Sprintf("%d scheme(s), multi-tap window %s", len(schemes), tapDelay)))
	fmt.Fprintln(w)

	claims := make(map[string][]string)
	for _, s := range schemes {
		state := "enabled"
		if !s.IsEnabled() {
			state = "disabled"
		}
		fmt.Fprintf(w, "  %s %s\n", render(SchemeStyle, s.Type().String()), Muted("("+s.Category().String()+", "+state+")"))

		for _, a := range s.Actions() {
			var paths []string
			for _, b := range a.RawAction().Bindings() {
				p := b.Path
				if b.Interactions != "" {
					p += " [" + b.Interactions + "]"
				}
				paths = append(paths, render(PathStyle, p))
			}
			fmt.Fprintf(w, "    %-16s %s%s\n", a.Name(), strings.Join(paths, ", "), wrapperFlags(a))
		}

		for _, p := range s.UniqueBindingPaths() {
			claims[p] = append(claims[p], s.Type().String())
		}
	}
	fmt.Fprintln(w)

	var shared []string
	for _, p := range sortedKeys(claims) {
		if len(claims[p]) > 1 {
			shared = append(shared, fmt.Sprintf("  %s  %s", render(PathStyle, p), strings.Join(claims[p], ", ")))
		}
	}
	if len(shared) > 0 {
		fmt.Fprintln(w, Bold("Shared controls"))
		for _, l := range shared {
			fmt.Fprintln(w, l)
		}
		fmt.Fprintln(w)
	}

	if len(controls) > 0 {
		fmt.Fprintln(w, Bold("Buttons"))
		for _, c := range controls {
			fmt.Fprintf(w, "  %2d  %s\n", c.Button, render(PathStyle, c.Path))
		}
		fmt.Fprintln(w)
	}
}

func wrapperFlags(a *input.ActionWrapper) string {
	var flags []string
	if a.IsClickOverridden() {
		flags = append(flags, "tap-unified")
	}
	if a.IsUIPointerCheckEnabled() {
		flags = append(flags, "pointer-check")
	}
	if a.IsUISelectionCheckEnabled() {
		flags = append(flags, "selection-check")
	}
	if len(flags) == 0 {
		return ""
	}
	return "  " + Muted("{"+strings.Join(flags, " ")+"}")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
