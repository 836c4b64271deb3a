// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

import (
	"net/url"
	"sort"
	"strings"
)

// noEscape reports whether c is an RFC 3986 unreserved character.
func noEscape(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

const upperhex = "0123456789ABCDEF"

// EncodeSegment percent-encodes a single path or query token the way the
// SigV4 canonicalization expects: unreserved characters pass through,
// everything else (including '/') becomes %XX over the UTF-8 bytes.
func EncodeSegment(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if noEscape(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

// EncodeObjectName encodes an object key segment by segment, preserving the
// literal '/' separators on the wire.
func EncodeObjectName(name string) string {
	segs := strings.Split(name, "/")
	for i, seg := range segs {
		segs[i] = EncodeSegment(seg)
	}
	return strings.Join(segs, "/")
}

// QueryEncode renders url.Values as a canonical query string: keys sorted,
// both keys and values percent-encoded, empty-valued keys rendered as
// "key=".
func QueryEncode(v url.Values) string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		ek := EncodeSegment(k)
		for _, val := range v[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(ek)
			b.WriteByte('=')
			b.WriteString(EncodeSegment(val))
		}
	}
	return b.String()
}
