package sched

import "testing"

func TestScopeMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		scope Scope
		mark  string
		want  bool
	}{
		{"specific scope matching mark", ScopeFor("cycle-7"), "cycle-7", true},
		{"specific scope different mark", ScopeFor("cycle-7"), "cycle-6", false},
		{"specific scope absent mark", ScopeFor("cycle-7"), "", false},
		{"wildcard matches any mark", ScopeAll(), "cycle-3", true},
		{"wildcard never matches absent mark", ScopeAll(), "", false},
		{"zero scope matches nothing", Scope{}, "cycle-7", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.scope.Matches(tc.mark); got != tc.want {
				t.Fatalf("Matches(%q) = %v, want %v", tc.mark, got, tc.want)
			}
		})
	}
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	if s := ParseScope(AllCrawlsArg); !s.All() {
		t.Fatalf("expected %q to parse as the wildcard scope", AllCrawlsArg)
	}
	s := ParseScope("cycle-7")
	if s.All() {
		t.Fatal("expected a specific scope")
	}
	if s.ID() != "cycle-7" {
		t.Fatalf("ID() = %q, want cycle-7", s.ID())
	}
	if s.String() != "cycle-7" {
		t.Fatalf("String() = %q, want cycle-7", s.String())
	}
}
