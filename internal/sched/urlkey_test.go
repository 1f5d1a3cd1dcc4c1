package sched

import "testing"

func TestReverseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		key  string
	}{
		{"plain page", "http://www.example.com/page", "com.example.www:http/page"},
		{"root path", "https://example.org/", "org.example:https/"},
		{"query preserved", "http://example.com/search?q=1&r=2", "com.example:http/search?q=1&r=2"},
		{"explicit port", "http://example.com:8080/a/b", "com.example:http:8080/a/b"},
		{"deep subdomain", "https://a.b.c.example.net/x", "net.example.c.b.a:https/x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			key, err := ReverseURL(tc.url)
			if err != nil {
				t.Fatalf("ReverseURL(%q) error = %v", tc.url, err)
			}
			if key != tc.key {
				t.Fatalf("ReverseURL(%q) = %q, want %q", tc.url, key, tc.key)
			}
			back, err := UnreverseURL(key)
			if err != nil {
				t.Fatalf("UnreverseURL(%q) error = %v", key, err)
			}
			if back != tc.url {
				t.Fatalf("round trip of %q produced %q", tc.url, back)
			}
		})
	}
}

func TestReverseURLRejectsPartialURLs(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "example.com/page", "/relative/only"} {
		if _, err := ReverseURL(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestUnreverseURLRejectsMalformedKeys(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "com.example/page", ":http/page", "com.example:http:80:99/x"} {
		if _, err := UnreverseURL(key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestHostKey(t *testing.T) {
	t.Parallel()

	host, err := HostKey("https://WWW.Example.COM:8443/page")
	if err != nil {
		t.Fatalf("HostKey() error = %v", err)
	}
	if host != "www.example.com" {
		t.Fatalf("HostKey() = %q, want www.example.com", host)
	}
	if _, err := HostKey("not a url://"); err == nil {
		t.Fatal("expected error for unparseable url")
	}
}
