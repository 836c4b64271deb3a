// Package sigv4 implements AWS Signature Version 4 request signing for the
// s3 service: header signing, query presigning, POST-policy signing, and
// the chunked streaming-payload variant.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cloudrift/s3core/cmn"
)

const (
	Algorithm  = "AWS4-HMAC-SHA256"
	ServiceS3  = "s3"
	terminator = "aws4_request"

	streamingAlgorithm = "AWS4-HMAC-SHA256-PAYLOAD"

	// AmzDateFormat is ISO basic UTC, bound to the request time.
	AmzDateFormat = "20060102T150405Z"
	dateFormat    = "20060102"

	// EmptySHA256 is hex(sha256("")).
	EmptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// Headers never included in the signature: Authorization is the signature
// itself, User-Agent may be altered by intermediaries.
var ignoredHeaders = map[string]struct{}{
	"authorization": {},
	"user-agent":    {},
}

func sumSHA256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

func sumHMAC(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// SigningKey derives the per-day signing key:
// HMAC(HMAC(HMAC(HMAC("AWS4"+secret, date), region), "s3"), "aws4_request").
func SigningKey(secretKey, region string, t time.Time) []byte {
	date := sumHMAC([]byte("AWS4"+secretKey), []byte(t.Format(dateFormat)))
	regionKey := sumHMAC(date, []byte(region))
	service := sumHMAC(regionKey, []byte(ServiceS3))
	return sumHMAC(service, []byte(terminator))
}

// Scope returns "<date>/<region>/s3/aws4_request".
func Scope(region string, t time.Time) string {
	return strings.Join([]string{t.Format(dateFormat), region, ServiceS3, terminator}, "/")
}

// signedHeaderNames returns the sorted lowercase names of all signable
// request headers, always including host.
func signedHeaderNames(req *http.Request) []string {
	names := make([]string, 0, len(req.Header)+1)
	for name := range req.Header {
		lower := strings.ToLower(name)
		if _, ok := ignoredHeaders[lower]; ok {
			continue
		}
		names = append(names, lower)
	}
	names = append(names, "host")
	sort.Strings(names)
	return names
}

func hostOf(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	return req.URL.Host
}

// canonicalHeaders maps each signed name to "name:trimmed-values\n" with
// multiple values collapsed to one comma-separated value.
func canonicalHeaders(req *http.Request, names []string) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		if name == "host" {
			b.WriteString(hostOf(req))
		} else {
			vals := req.Header[http.CanonicalHeaderKey(name)]
			for i, v := range vals {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(strings.TrimSpace(v))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func canonicalQuery(req *http.Request) string {
	return cmn.QueryEncode(req.URL.Query())
}

func canonicalPath(req *http.Request) string {
	if p := req.URL.EscapedPath(); p != "" {
		return p
	}
	return "/"
}

// canonicalRequest assembles METHOD, path, query, headers, signed-header
// list, and payload hash, newline-separated.
func canonicalRequest(req *http.Request, names []string, payloadHash string) string {
	return strings.Join([]string{
		req.Method,
		canonicalPath(req),
		canonicalQuery(req),
		canonicalHeaders(req, names),
		strings.Join(names, ";"),
		payloadHash,
	}, "\n")
}

func stringToSign(canonical, region string, t time.Time) string {
	return strings.Join([]string{
		Algorithm,
		t.Format(AmzDateFormat),
		Scope(region, t),
		hex.EncodeToString(sumSHA256([]byte(canonical))),
	}, "\n")
}

// requestTime parses x-amz-date off the request; when absent the header is
// bound to the current time.
func requestTime(req *http.Request) time.Time {
	if v := req.Header.Get(cmn.HdrAmzDate); v != "" {
		if t, err := time.Parse(AmzDateFormat, v); err == nil {
			return t
		}
	}
	t := time.Now().UTC()
	req.Header.Set(cmn.HdrAmzDate, t.Format(AmzDateFormat))
	return t
}

// SignV4 signs the request in place and returns the hex signature. The
// payload hash is read from x-amz-content-sha256; an absent header signs
// the empty payload.
func SignV4(req *http.Request, accessKey, secretKey, sessionToken, region string) string {
	if sessionToken != "" {
		req.Header.Set(cmn.HdrAmzSecurityToken, sessionToken)
	}
	t := requestTime(req)
	payloadHash := req.Header.Get(cmn.HdrAmzContentSHA256)
	if payloadHash == "" {
		payloadHash = EmptySHA256
	}

	names := signedHeaderNames(req)
	canonical := canonicalRequest(req, names, payloadHash)
	signature := hex.EncodeToString(sumHMAC(
		SigningKey(secretKey, region, t),
		[]byte(stringToSign(canonical, region, t))))

	req.Header.Set(cmn.HdrAuthorization, strings.Join([]string{
		Algorithm + " Credential=" + accessKey + "/" + Scope(region, t),
		"SignedHeaders=" + strings.Join(names, ";"),
		"Signature=" + signature,
	}, ", "))
	return signature
}

// PreSignV4 embeds the credential scope and signature into the request
// query so that an unsigned client can execute it. expires is in seconds.
func PreSignV4(req *http.Request, accessKey, secretKey, sessionToken, region string, expires int64) *http.Request {
	t := requestTime(req)

	query := req.URL.Query()
	query.Set("X-Amz-Algorithm", Algorithm)
	query.Set("X-Amz-Credential", accessKey+"/"+Scope(region, t))
	query.Set("X-Amz-Date", t.Format(AmzDateFormat))
	query.Set("X-Amz-Expires", strconv.FormatInt(expires, 10))
	query.Set("X-Amz-SignedHeaders", "host")
	if sessionToken != "" {
		query.Set("X-Amz-Security-Token", sessionToken)
	}
	req.URL.RawQuery = cmn.QueryEncode(query)

	canonical := strings.Join([]string{
		req.Method,
		canonicalPath(req),
		req.URL.RawQuery,
		"host:" + hostOf(req) + "\n",
		"host",
		cmn.UnsignedPayload,
	}, "\n")
	signature := hex.EncodeToString(sumHMAC(
		SigningKey(secretKey, region, t),
		[]byte(stringToSign(canonical, region, t))))

	req.URL.RawQuery += "&X-Amz-Signature=" + signature
	return req
}

// PostPolicySignature signs a base64-encoded POST policy document.
func PostPolicySignature(policyBase64 string, t time.Time, secretKey, region string) string {
	return hex.EncodeToString(sumHMAC(SigningKey(secretKey, region, t), []byte(policyBase64)))
}

// VerifyURL reports whether a presigned URL query is well formed; exposed
// for callers that relay presigned requests.
func VerifyURL(u *url.URL) bool {
	q := u.Query()
	return q.Get("X-Amz-Algorithm") == Algorithm && q.Get("X-Amz-Signature") != ""
}
