package app

import (
	"fmt"
	"text/tabwriter"
)

// Profiles prints the available profiles, marking the default one.
func (a *App) Profiles() error {
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	for _, name := range a.model.ProfileNames() {
		p := a.model.Profiles[name]
		mark := " "
		if name == a.model.DefaultProfile {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%d css, %d js\t%s\n", mark, name, len(p.CSSOrder), len(p.JSOrder), p.Description)
	}
	return tw.Flush()
}
