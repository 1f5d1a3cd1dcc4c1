package sched

import "testing"

func testParams(scope Scope, resume bool) *RunParams {
	return &RunParams{
		RunID:  "run-1",
		Scope:  scope,
		Resume: resume,
	}
}

func generatedPage(crawlID string) PageRecord {
	var page PageRecord
	page.SetMark(StageGenerate, crawlID)
	return page
}

func TestFilterScopeRules(t *testing.T) {
	t.Parallel()

	matching := generatedPage("cycle-7")
	stale := generatedPage("cycle-6")
	var unmarked PageRecord

	cases := []struct {
		name  string
		scope Scope
		page  PageRecord
		skip  Skip
	}{
		{"matching crawl id is eligible", ScopeFor("cycle-7"), matching, SkipNone},
		{"different crawl id is skipped", ScopeFor("cycle-7"), stale, SkipScope},
		{"unmarked page is skipped", ScopeFor("cycle-7"), unmarked, SkipScope},
		{"wildcard accepts any crawl id", ScopeAll(), stale, SkipNone},
		{"wildcard still skips unmarked pages", ScopeAll(), unmarked, SkipScope},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := NewFilter(testParams(tc.scope, false))
			item, skip, err := f.Evaluate("com.example:http/page", tc.page)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if skip != tc.skip {
				t.Fatalf("Evaluate() skip = %q, want %q", skip, tc.skip)
			}
			if tc.skip == SkipNone && item.URL != "http://example.com/page" {
				t.Fatalf("Evaluate() url = %q, want http://example.com/page", item.URL)
			}
		})
	}
}

func TestFilterResumeSkipsFetchedPages(t *testing.T) {
	t.Parallel()

	fetched := generatedPage("cycle-7")
	fetched.SetMark(StageFetch, "cycle-7")
	fresh := generatedPage("cycle-7")

	withResume := NewFilter(testParams(ScopeFor("cycle-7"), true))
	if _, skip, err := withResume.Evaluate("com.example:http/a", fetched); err != nil || skip != SkipFetched {
		t.Fatalf("Evaluate(fetched) = (%q, %v), want skip %q", skip, err, SkipFetched)
	}
	if _, skip, err := withResume.Evaluate("com.example:http/b", fresh); err != nil || skip != SkipNone {
		t.Fatalf("Evaluate(fresh) = (%q, %v), want no skip", skip, err)
	}

	// Without resume a fetch mark is irrelevant; the page is refetched.
	withoutResume := NewFilter(testParams(ScopeFor("cycle-7"), false))
	if _, skip, err := withoutResume.Evaluate("com.example:http/a", fetched); err != nil || skip != SkipNone {
		t.Fatalf("Evaluate(fetched, no resume) = (%q, %v), want no skip", skip, err)
	}
}

func TestFilterScenarioSingleCycle(t *testing.T) {
	t.Parallel()

	// Scope cycle-7: A generated in cycle-7, B in cycle-6, C generated
	// and already fetched in cycle-7.
	a := generatedPage("cycle-7")
	b := generatedPage("cycle-6")
	c := generatedPage("cycle-7")
	c.SetMark(StageFetch, "cycle-7")

	eligible := func(resume bool, key string, page PageRecord) bool {
		t.Helper()
		f := NewFilter(testParams(ScopeFor("cycle-7"), resume))
		_, skip, err := f.Evaluate(key, page)
		if err != nil {
			t.Fatalf("Evaluate(%s) error = %v", key, err)
		}
		return skip == SkipNone
	}

	if !eligible(false, "com.example:http/a", a) || eligible(false, "com.example:http/b", b) {
		t.Fatal("without resume, only A and C should be eligible")
	}
	if !eligible(false, "com.example:http/c", c) {
		t.Fatal("without resume, C should be refetched")
	}
	if !eligible(true, "com.example:http/a", a) || eligible(true, "com.example:http/b", b) || eligible(true, "com.example:http/c", c) {
		t.Fatal("with resume, only A should be eligible")
	}
}

func TestFilterItemFields(t *testing.T) {
	t.Parallel()

	params := testParams(ScopeFor("cycle-7"), false)
	page := generatedPage("cycle-7")
	page.ReprURL = "http://example.com/canonical"

	f := NewFilter(params)
	item, skip, err := f.Evaluate("com.example.www:https/deep/page?x=1", page)
	if err != nil || skip != SkipNone {
		t.Fatalf("Evaluate() = (%q, %v), want eligible", skip, err)
	}
	if item.HostKey != "www.example.com" {
		t.Fatalf("HostKey = %q, want www.example.com", item.HostKey)
	}
	if item.URL != "https://www.example.com/deep/page?x=1" {
		t.Fatalf("URL = %q", item.URL)
	}
	if item.ReprURL != "http://example.com/canonical" {
		t.Fatalf("ReprURL = %q", item.ReprURL)
	}
	if item.Params != params {
		t.Fatal("item should reference the shared run parameters")
	}
	if item.DispatchKey >= dispatchKeySpace {
		t.Fatalf("DispatchKey = %d outside [0,%d)", item.DispatchKey, dispatchKeySpace)
	}
}

func TestFilterRejectsMalformedKeys(t *testing.T) {
	t.Parallel()

	f := NewFilter(testParams(ScopeAll(), false))
	if _, _, err := f.Evaluate("no-scheme-part", generatedPage("c1")); err == nil {
		t.Fatal("expected error for malformed url key")
	}
}
