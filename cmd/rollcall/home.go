package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/tajious/rollcall/internal/menu"
)

func (c *cli) runHome(args []string) error {
	fs := c.newFlagSet("home")
	query := fs.String("q", "", "filter menu entries")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if u := c.sessionUser(); u != nil {
		fmt.Fprintf(c.out, "Signed in as %s\n\n", u.Name)
	}

	items := menu.Filter(menu.Admin, *query)
	if len(items) == 0 {
		fmt.Fprintln(c.out, "no matching entries")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\trollcall %s list\n", it.Title, it.Subtitle, it.Command)
	}
	return tw.Flush()
}
