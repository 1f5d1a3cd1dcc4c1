package sched

import (
	"fmt"
	"net/url"
	"strings"
)

// ReverseURL converts a URL into its canonical host-first store key, e.g.
// "http://www.example.com/page?q=1" -> "com.example.www:http/page?q=1".
// Keys sort by domain hierarchy, which keeps a host's pages adjacent in
// ordered scans.
func ReverseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("url %q missing scheme or host", raw)
	}

	var b strings.Builder
	b.WriteString(reverseHost(u.Hostname()))
	b.WriteByte(':')
	b.WriteString(u.Scheme)
	if port := u.Port(); port != "" {
		b.WriteByte(':')
		b.WriteString(port)
	}
	b.WriteString(u.RequestURI())
	return b.String(), nil
}

// UnreverseURL restores the original URL from a store key.
func UnreverseURL(key string) (string, error) {
	authority := key
	path := "/"
	if slash := strings.IndexByte(key, '/'); slash >= 0 {
		authority = key[:slash]
		path = key[slash:]
	}

	parts := strings.Split(authority, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("malformed url key %q", key)
	}
	host := reverseHost(parts[0])
	scheme := parts[1]
	if host == "" || scheme == "" {
		return "", fmt.Errorf("malformed url key %q", key)
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	if len(parts) == 3 {
		b.WriteByte(':')
		b.WriteString(parts[2])
	}
	b.WriteString(path)
	return b.String(), nil
}

// HostKey extracts the lowercased host used for partitioning.
func HostKey(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return host, nil
}

// reverseHost flips the dot-separated segments of a hostname. It is its
// own inverse.
func reverseHost(host string) string {
	segments := strings.Split(host, ".")
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, ".")
}
