// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

import (
	"net/url"
	"testing"
)

func TestEncodeSegment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"simple", "simple"},
		{"a b", "a%20b"},
		{"a+b", "a%2Bb"},
		{"a/b", "a%2Fb"},
		{"a=b&c", "a%3Db%26c"},
		{"~tilde-._", "~tilde-._"},
		{"ümläut", "%C3%BCml%C3%A4ut"},
	}
	for _, tc := range tests {
		if got := EncodeSegment(tc.in); got != tc.want {
			t.Errorf("EncodeSegment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEncodeObjectName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"dir/file", "dir/file"},
		{"dir/my file.txt", "dir/my%20file.txt"},
		{"a/b+c/d", "a/b%2Bc/d"},
	}
	for _, tc := range tests {
		if got := EncodeObjectName(tc.in); got != tc.want {
			t.Errorf("EncodeObjectName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQueryEncode(t *testing.T) {
	v := url.Values{}
	v.Set("uploads", "")
	v.Set("prefix", "a b")
	v.Set("delimiter", "/")
	got := QueryEncode(v)
	want := "delimiter=%2F&prefix=a%20b&uploads="
	if got != want {
		t.Errorf("QueryEncode = %q, want %q", got, want)
	}
	if QueryEncode(nil) != "" {
		t.Error("QueryEncode(nil) must be empty")
	}
}
