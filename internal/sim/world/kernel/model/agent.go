package model

import "sort"

type Agent struct {
	ID   string
	Name string

	Permissions map[string]bool

	// Inbox collects chat messages sent to the agent, oldest first.
	Inbox []string
}

func (a *Agent) HasPermission(perm string) bool {
	if a == nil || a.Permissions == nil {
		return false
	}
	return a.Permissions[perm]
}

func (a *Agent) Grant(perms ...string) {
	if a.Permissions == nil {
		a.Permissions = map[string]bool{}
	}
	for _, p := range perms {
		if p != "" {
			a.Permissions[p] = true
		}
	}
}

func (a *Agent) PermissionList() []string {
	out := make([]string, 0, len(a.Permissions))
	for p, ok := range a.Permissions {
		if ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
