package redis

import (
	"testing"

	"github.com/harridge/fetchmill/internal/sched"
)

func TestKeyPrefixing(t *testing.T) {
	t.Parallel()

	s := &Store{prefix: "fetchmill:page:"}
	full := s.key("com.example:http/page")
	if full != "fetchmill:page:com.example:http/page" {
		t.Fatalf("key() = %q", full)
	}
	if got := s.unkey(full); got != "com.example:http/page" {
		t.Fatalf("unkey() = %q", got)
	}
}

func TestPageCodecRoundTrip(t *testing.T) {
	t.Parallel()

	var page sched.PageRecord
	page.SetMark(sched.StageGenerate, "cycle-3")
	page.SetMark(sched.StageFetch, "cycle-3")
	page.ReprURL = "http://example.com/canonical"
	page.Outlinks = []string{"http://example.com/a", "http://example.com/b"}

	raw, err := encodePage(page)
	if err != nil {
		t.Fatalf("encodePage() error = %v", err)
	}
	back, err := decodePage(raw)
	if err != nil {
		t.Fatalf("decodePage() error = %v", err)
	}

	if mark, _ := back.Mark(sched.StageGenerate); mark != "cycle-3" {
		t.Fatalf("generate mark = %q", mark)
	}
	if mark, _ := back.Mark(sched.StageFetch); mark != "cycle-3" {
		t.Fatalf("fetch mark = %q", mark)
	}
	if back.ReprURL != page.ReprURL || len(back.Outlinks) != 2 {
		t.Fatalf("round trip lost fields: %+v", back)
	}
}

func TestDecodePageRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := decodePage([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
