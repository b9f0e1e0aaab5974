// Package menu holds the admin home screen entries.
package menu

import "strings"

type Item struct {
	Title    string
	Subtitle string
	Command  string
}

var Admin = []Item{
	{Title: "Users", Subtitle: "Manage users", Command: "users"},
	{Title: "Roles", Subtitle: "Manage roles", Command: "roles"},
}

// Filter keeps the items whose title or subtitle contains query, ignoring case.
func Filter(items []Item, query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]Item(nil), items...)
	}

	var out []Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Subtitle), q) {
			out = append(out, it)
		}
	}
	return out
}
