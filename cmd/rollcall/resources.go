package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/resource"
)

// binder registers edit flags on a FlagSet and returns a function that applies
// the flags the user actually set on top of a base payload.
type binder[P any] func(fs *flag.FlagSet) func(ctx context.Context, base P, set map[string]bool) (P, error)

type resourceCommand[T resource.Record[P], P any] struct {
	name     string
	list     *resource.List[T, P]
	defaults P
	payload  func(T) P
	bind     binder[P]
	header   string
	row      func(T) string
	cli      *cli
}

func (rc *resourceCommand[T, P]) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errUsage
	}
	if err := rc.cli.requireSession(); err != nil {
		return err
	}

	sub, args := args[0], args[1:]
	fs := rc.cli.newFlagSet(rc.name + " " + sub)

	switch sub {
	case "list":
		deleted := fs.Bool("deleted", false, "show soft-deleted records")
		query := fs.String("q", "", "filter by name")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := rc.list.SetShowDeleted(ctx, *deleted); err != nil {
			return err
		}
		rc.list.Filter(*query)
		return rc.print(rc.cli.out, rc.list.Visible())

	case "add":
		apply := rc.bind(fs)
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		p, err := apply(ctx, rc.defaults, setFlags(fs))
		if err != nil {
			return err
		}
		if err := rc.list.Save(ctx, "", p); err != nil {
			return err
		}
		fmt.Fprintln(rc.cli.out, "Saved")
		return rc.print(rc.cli.out, rc.list.Visible())

	case "edit", "toggle", "delete", "restore", "purge":
		id := fs.String("id", "", "record id")
		var apply func(context.Context, P, map[string]bool) (P, error)
		if sub == "edit" {
			apply = rc.bind(fs)
		}
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		views := []bool{false}
		switch sub {
		case "restore":
			views = []bool{true}
		case "purge":
			views = []bool{true, false}
		}
		row, err := rc.find(ctx, *id, views...)
		if err != nil {
			return err
		}
		if err := rc.mutate(ctx, sub, row, apply, setFlags(fs)); err != nil {
			return err
		}
		fmt.Fprintln(rc.cli.out, "Done")
		return rc.print(rc.cli.out, rc.list.Visible())
	}

	usage()
	return errUsage
}

func (rc *resourceCommand[T, P]) mutate(ctx context.Context, sub string, row T, apply func(context.Context, P, map[string]bool) (P, error), set map[string]bool) error {
	switch sub {
	case "edit":
		p, err := apply(ctx, rc.payload(row), set)
		if err != nil {
			return err
		}
		return rc.list.Save(ctx, row.GetID(), p)
	case "toggle":
		return rc.list.ToggleStatus(ctx, row)
	case "delete":
		return rc.list.SoftDelete(ctx, row)
	case "restore":
		return rc.list.Restore(ctx, row)
	}
	return rc.list.HardDelete(ctx, row)
}

// find looks id up in each view in turn, leaving the list on the view where
// the row was found.
func (rc *resourceCommand[T, P]) find(ctx context.Context, id string, views ...bool) (T, error) {
	var zero T
	for _, deleted := range views {
		if err := rc.list.SetShowDeleted(ctx, deleted); err != nil {
			return zero, err
		}
		if row, ok := rc.list.Find(id); ok {
			return row, nil
		}
	}
	return zero, fmt.Errorf("no %s with id %s", strings.TrimSuffix(rc.name, "s"), id)
}

func (rc *resourceCommand[T, P]) print(w io.Writer, rows []T) error {
	if len(rows) == 0 {
		fmt.Fprintf(w, "no %s\n", rc.name)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, rc.header)
	for _, r := range rows {
		fmt.Fprintln(tw, rc.row(r))
	}
	return tw.Flush()
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func deletedMark(deleted bool) string {
	if deleted {
		return "deleted"
	}
	return ""
}

func (c *cli) usersCommand() *resourceCommand[models.User, models.UserPayload] {
	return &resourceCommand[models.User, models.UserPayload]{
		name:     "users",
		list:     resource.NewList[models.User, models.UserPayload](c.api.Users(), resource.UserMessages, resource.WithLogger(c.log)),
		defaults: models.UserPayload{Status: models.StatusActive},
		payload:  models.User.Payload,
		bind:     c.userFields,
		header:   "ID\tNAME\tMOBILE\tROLE\tSTATUS\t",
		row: func(u models.User) string {
			return strings.Join([]string{u.ID, u.Name, u.Mobile, u.RoleName(), string(u.Status), deletedMark(u.IsDeleted())}, "\t")
		},
		cli: c,
	}
}

func (c *cli) userFields(fs *flag.FlagSet) func(context.Context, models.UserPayload, map[string]bool) (models.UserPayload, error) {
	var (
		name   = fs.String("name", "", "full name")
		mobile = fs.String("mobile", "", "10 digit mobile number")
		status = fs.String("status", "", "active or inactive")
		role   = fs.String("role", "", "role name or id")
	)
	return func(ctx context.Context, p models.UserPayload, set map[string]bool) (models.UserPayload, error) {
		if set["name"] {
			p.Name = *name
		}
		if set["mobile"] {
			p.Mobile = *mobile
		}
		if set["status"] {
			p.Status = models.Status(*status)
		}
		if set["role"] {
			id, err := c.resolveRole(ctx, *role)
			if err != nil {
				return p, err
			}
			p.RoleID = id
		}
		return p, nil
	}
}

// resolveRole matches a role by id or by name, ignoring case, against the
// active role catalogue.
func (c *cli) resolveRole(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	roles := resource.NewList[models.Role, models.RolePayload](c.api.Roles(), resource.RoleMessages, resource.WithLogger(c.log))
	if err := roles.Refresh(ctx); err != nil {
		return "", err
	}

	var names []string
	for _, r := range roles.Rows() {
		if r.ID == ref || strings.EqualFold(r.Name, ref) {
			return r.ID, nil
		}
		names = append(names, r.Name)
	}
	return "", fmt.Errorf("unknown role %q (available: %s)", ref, strings.Join(names, ", "))
}

func (c *cli) rolesCommand() *resourceCommand[models.Role, models.RolePayload] {
	return &resourceCommand[models.Role, models.RolePayload]{
		name:     "roles",
		list:     resource.NewList[models.Role, models.RolePayload](c.api.Roles(), resource.RoleMessages, resource.WithLogger(c.log)),
		defaults: models.RolePayload{Status: models.StatusActive},
		payload:  models.Role.Payload,
		bind:     c.roleFields,
		header:   "ID\tNAME\tDESCRIPTION\tSTATUS\t",
		row: func(r models.Role) string {
			return strings.Join([]string{r.ID, r.Name, r.Description, string(r.Status), deletedMark(r.IsDeleted())}, "\t")
		},
		cli: c,
	}
}

func (c *cli) roleFields(fs *flag.FlagSet) func(context.Context, models.RolePayload, map[string]bool) (models.RolePayload, error) {
	var (
		name        = fs.String("name", "", "role name")
		description = fs.String("description", "", "what the role is for")
		status      = fs.String("status", "", "active or inactive")
	)
	return func(_ context.Context, p models.RolePayload, set map[string]bool) (models.RolePayload, error) {
		if set["name"] {
			p.Name = *name
		}
		if set["description"] {
			p.Description = *description
		}
		if set["status"] {
			p.Status = models.Status(*status)
		}
		return p, nil
	}
}
