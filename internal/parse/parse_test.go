package parse

import (
	"fmt"
	"strings"
	"testing"
)

func TestExtractTitleAndOutlinks(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><head><title> Example Page </title></head><body>
		<a href="/relative">rel</a>
		<a href="https://other.test/page">abs</a>
		<a href="mailto:bot@example.com">mail</a>
		<a href="#section">frag</a>
		<a href="/relative">dup</a>
	</body></html>`)

	summary, err := New().Extract("http://example.com/dir/page", body)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if summary.Title != "Example Page" {
		t.Fatalf("Title = %q", summary.Title)
	}
	want := []string{"http://example.com/relative", "https://other.test/page"}
	if len(summary.Outlinks) != len(want) {
		t.Fatalf("Outlinks = %v, want %v", summary.Outlinks, want)
	}
	for i := range want {
		if summary.Outlinks[i] != want[i] {
			t.Fatalf("Outlinks = %v, want %v", summary.Outlinks, want)
		}
	}
}

func TestExtractCapsOutlinks(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < maxOutlinks+50; i++ {
		fmt.Fprintf(&b, `<a href="/p%d">l</a>`, i)
	}
	b.WriteString("</body></html>")

	summary, err := New().Extract("http://example.com/", []byte(b.String()))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(summary.Outlinks) != maxOutlinks {
		t.Fatalf("Outlinks len = %d, want %d", len(summary.Outlinks), maxOutlinks)
	}
}

func TestExtractEmptyBody(t *testing.T) {
	t.Parallel()

	summary, err := New().Extract("http://example.com/", nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if summary.Title != "" || len(summary.Outlinks) != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestExtractRejectsBadBase(t *testing.T) {
	t.Parallel()

	if _, err := New().Extract("http://%zz", []byte("<html></html>")); err == nil {
		t.Fatal("expected error for unparseable base url")
	}
}
