package sched

// AllCrawlsArg is the CLI argument selecting every crawl cycle at once.
const AllCrawlsArg = "-all"

// Scope selects which crawl cycles a run operates on: a single crawl id or
// the wildcard covering all of them. The zero value matches nothing.
type Scope struct {
	id  string
	all bool
}

// ScopeFor returns a scope restricted to one crawl id.
func ScopeFor(crawlID string) Scope {
	return Scope{id: crawlID}
}

// ScopeAll returns the wildcard scope.
func ScopeAll() Scope {
	return Scope{all: true}
}

// ParseScope maps the CLI crawl argument to a scope.
func ParseScope(arg string) Scope {
	if arg == AllCrawlsArg {
		return ScopeAll()
	}
	return ScopeFor(arg)
}

// All reports whether the scope is the wildcard.
func (s Scope) All() bool { return s.all }

// ID returns the crawl id of a specific scope, empty for the wildcard.
func (s Scope) ID() string { return s.id }

// Matches reports whether a stage mark falls inside the scope. An absent
// mark (empty string) never matches, wildcard or not.
func (s Scope) Matches(mark string) bool {
	if mark == "" {
		return false
	}
	return s.all || mark == s.id
}

// String renders the scope for logs.
func (s Scope) String() string {
	if s.all {
		return "all"
	}
	return s.id
}
