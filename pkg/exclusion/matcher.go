package exclusion

import "strings"

// Scope says which list blocked a name. Event-scoped lists are reported first
// in user-facing explanations; both block equally.
type Scope string

const (
	ScopeNone   Scope = ""
	ScopeEvent  Scope = "event"
	ScopeGlobal Scope = "global"
)

// Match checks a resolved name against the event-scoped and global lists.
// Matching is exact equality after trimming and case folding, never substring
// or fuzzy: "Jon Smith" does not block "John Smith".
func Match(name string, eventList, globalList []string) Scope {
	key := canonical(name)
	if key == "" {
		return ScopeNone
	}
	for _, e := range eventList {
		if canonical(e) == key {
			return ScopeEvent
		}
	}
	for _, e := range globalList {
		if canonical(e) == key {
			return ScopeGlobal
		}
	}
	return ScopeNone
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
