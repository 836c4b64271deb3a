// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

import (
	"strings"
	"testing"
)

func TestCheckBucketName(t *testing.T) {
	valid := []string{
		"abc",
		"my-bucket",
		"my.bucket",
		"bucket123",
		"123bucket",
		"a1b",
		strings.Repeat("a", 63),
	}
	for _, name := range valid {
		if err := CheckBucketName(name); err != nil {
			t.Errorf("CheckBucketName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{
		"",
		"ab",
		strings.Repeat("a", 64),
		"My-Bucket",
		"-bucket",
		"bucket-",
		".bucket",
		"bucket.",
		"buck..et",
		"buck_et",
		"bucket name",
		"bucket/name",
	}
	for _, name := range invalid {
		if err := CheckBucketName(name); err == nil {
			t.Errorf("CheckBucketName(%q) = nil, want error", name)
		}
	}
}

func TestCheckObjectName(t *testing.T) {
	valid := []string{"a", "dir/file", "a/b/c", "weird name!", "ümläut"}
	for _, name := range valid {
		if err := CheckObjectName(name); err != nil {
			t.Errorf("CheckObjectName(%q) = %v, want nil", name, err)
		}
	}
	invalid := []string{"", ".", "..", "a/../b", "./a", string([]byte{0xff, 0xfe})}
	for _, name := range invalid {
		if err := CheckObjectName(name); err == nil {
			t.Errorf("CheckObjectName(%q) = nil, want error", name)
		}
	}
}

func TestIsValidHost(t *testing.T) {
	valid := []string{"localhost", "play.min.io", "s3.amazonaws.com", "10.0.0.1", "::1", "2001:db8::1", "a-b.example"}
	for _, h := range valid {
		if !IsValidHost(h) {
			t.Errorf("IsValidHost(%q) = false, want true", h)
		}
	}
	invalid := []string{"", "host_name", "-host.example", "host-.example", "300.1.2.3", strings.Repeat("a", 254)}
	for _, h := range invalid {
		if IsValidHost(h) {
			t.Errorf("IsValidHost(%q) = true, want false", h)
		}
	}
}

func TestNormalizeRegion(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "us-east-1"},
		{"EU", "eu-west-1"},
		{"ap-southeast-2", "ap-southeast-2"},
	}
	for _, tc := range tests {
		if got := NormalizeRegion(tc.in); got != tc.want {
			t.Errorf("NormalizeRegion(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAmazonRegionalEndpoint(t *testing.T) {
	if got := AmazonRegionalEndpoint("us-east-1"); got != "s3.amazonaws.com" {
		t.Errorf("us-east-1 endpoint = %q", got)
	}
	if got := AmazonRegionalEndpoint("eu-west-1"); got != "s3.eu-west-1.amazonaws.com" {
		t.Errorf("eu-west-1 endpoint = %q", got)
	}
}
