// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	bucketNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.\-]+[a-z0-9]$`)
	ipv4Regex       = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	hostLabelRegex  = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]*[a-zA-Z0-9])?$`)
)

// CheckBucketName validates the name against the S3 bucket naming rules:
// 3..63 characters, lowercase alphanumerics plus '.' and '-', alphanumeric
// first and last character, no consecutive dots.
func CheckBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("bucket name %q must be between 3 and 63 characters long", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("bucket name %q must not contain consecutive dots", name)
	}
	if !bucketNameRegex.MatchString(name) {
		return fmt.Errorf("bucket name %q contains invalid characters", name)
	}
	return nil
}

// CheckObjectName validates an object key: nonempty, valid UTF-8, and no
// path segment equal to "." or "..".
func CheckObjectName(name string) error {
	if name == "" {
		return fmt.Errorf("object name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("object name %q is not valid UTF-8", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "." || seg == ".." {
			return fmt.Errorf("object name %q contains a relative path segment", name)
		}
	}
	return nil
}

// IsAmazonHost reports whether host is the canonical Amazon S3 endpoint.
func IsAmazonHost(host string) bool {
	return host == AmazonHost
}

// IsValidHost accepts a DNS name, an IPv4 dotted quad, or an IPv6 literal.
func IsValidHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return true
	}
	if ipv4Regex.MatchString(host) {
		// Matched the shape but net.ParseIP rejected it (octet > 255).
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if len(label) == 0 || len(label) > 63 || !hostLabelRegex.MatchString(label) {
			return false
		}
	}
	return true
}

// AmazonRegionalEndpoint returns the hostname serving the given region.
func AmazonRegionalEndpoint(region string) string {
	switch region {
	case "", DefaultRegion:
		return AmazonHost
	default:
		return "s3." + region + ".amazonaws.com"
	}
}

// NormalizeRegion maps legacy location constraints onto region names:
// empty means us-east-1 and the historical "EU" aliases eu-west-1.
func NormalizeRegion(location string) string {
	switch location {
	case "":
		return DefaultRegion
	case "EU":
		return "eu-west-1"
	default:
		return location
	}
}
