// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/cloudrift/s3core/cmn"
	"github.com/cloudrift/s3core/sigv4"
)

// requestMetadata carries one operation's wire-level inputs into
// executeMethod.
type requestMetadata struct {
	bucketName string
	objectName string

	queryValues  url.Values
	customHeader http.Header

	// content is a control-plane body held in memory; contentBody a
	// data-plane stream. At most one is set.
	content       []byte
	contentBody   io.Reader
	contentLength int64
	contentSHA256 string // precomputed payload hash
	contentMD5    bool   // operation requires Content-MD5
	streamUpload  bool   // contentBody may be chunked-signed

	overrideRegion string // bypasses resolution when set
}

//////////////////////
// request pipeline //
//////////////////////

// executeMethod validates names, resolves the bucket region, builds and
// signs the request, executes it, and maps non-2xx responses to *Error.
// On success the caller owns resp.Body.
func (c *Client) executeMethod(ctx context.Context, method string, meta requestMetadata) (*http.Response, error) {
	if err := c.checkNames(meta.bucketName, meta.objectName); err != nil {
		return nil, err
	}

	region := meta.overrideRegion
	if region == "" {
		var err error
		if region, err = c.resolveRegion(ctx, meta.bucketName); err != nil {
			return nil, err
		}
	}

	req, err := c.newRequest(ctx, method, meta, region)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	s3err := httpRespToError(resp, meta.bucketName, meta.objectName)
	closeResponse(resp)
	if s3err.Code == "NoSuchBucket" && meta.bucketName != "" {
		c.regionCache.Invalidate(meta.bucketName)
	}
	c.stats.Error(s3err.Kind.String())
	if c.log != nil {
		c.log.Warn("s3.request.error",
			"method", method, "bucket", meta.bucketName, "object", meta.objectName,
			"status", resp.StatusCode, "code", s3err.Code)
	}
	return nil, s3err
}

func (c *Client) checkNames(bucket, object string) error {
	if bucket != "" {
		if err := cmn.CheckBucketName(bucket); err != nil {
			return argErr("%v", err)
		}
	}
	if object != "" {
		if err := cmn.CheckObjectName(object); err != nil {
			return argErr("%v", err)
		}
	}
	return nil
}

// newRequest assembles the URL, categorized headers, body, and signature.
func (c *Client) newRequest(ctx context.Context, method string, meta requestMetadata, region string) (*http.Request, error) {
	target, err := c.makeTargetURL(method, meta, region)
	if err != nil {
		return nil, err
	}

	body, length := meta.contentBody, meta.contentLength
	if meta.content != nil {
		body, length = bytes.NewReader(meta.content), int64(len(meta.content))
	}
	req, reqErr := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if reqErr != nil {
		return nil, protocolErr("build request: %v", reqErr)
	}
	req.Host = hostHeader(target)

	for k, v := range cmn.NormalizeHeaders(meta.customHeader) {
		req.Header[k] = v
	}
	req.Header.Set(cmn.HdrUserAgent, c.userAgent())

	if meta.contentMD5 && meta.content != nil {
		sum := md5.Sum(meta.content)
		req.Header.Set(cmn.HdrContentMD5, base64.StdEncoding.EncodeToString(sum[:]))
	}

	switch {
	case !c.anonymous() && method == http.MethodPut && meta.objectName != "" &&
		meta.streamUpload && length > 0:
		sigv4.SignV4Chunked(req, body, length,
			c.creds.AccessKey, c.creds.SecretKey, c.creds.SessionToken, region)
		return req, nil

	case !c.anonymous() && c.secure:
		// over TLS the payload goes unsigned, so every in-memory body
		// still gets a Content-MD5
		if meta.content != nil && req.Header.Get(cmn.HdrContentMD5) == "" {
			sum := md5.Sum(meta.content)
			req.Header.Set(cmn.HdrContentMD5, base64.StdEncoding.EncodeToString(sum[:]))
		}
		setBody(req, body, length)
		req.Header.Set(cmn.HdrAmzContentSHA256, cmn.UnsignedPayload)
		sigv4.SignV4(req, c.creds.AccessKey, c.creds.SecretKey, c.creds.SessionToken, region)

	case !c.anonymous():
		setBody(req, body, length)
		hash := meta.contentSHA256
		if hash == "" {
			if meta.content != nil {
				sum := sha256.Sum256(meta.content)
				hash = hex.EncodeToString(sum[:])
			} else if body != nil {
				hash = cmn.UnsignedPayload
			} else {
				hash = sigv4.EmptySHA256
			}
		}
		// transparent gzip would desynchronize the signed length
		req.Header.Set(cmn.HdrAcceptEncoding, "identity")
		req.Header.Set(cmn.HdrAmzContentSHA256, hash)
		sigv4.SignV4(req, c.creds.AccessKey, c.creds.SecretKey, c.creds.SessionToken, region)

	default:
		setBody(req, body, length)
	}
	return req, nil
}

func setBody(req *http.Request, body io.Reader, length int64) {
	if body == nil {
		return
	}
	req.Body = io.NopCloser(body)
	req.ContentLength = length
	if length >= 0 {
		req.Header.Set(cmn.HdrContentLength, strconv.FormatInt(length, 10))
	}
}

// makeTargetURL selects the regional endpoint and the addressing style.
func (c *Client) makeTargetURL(method string, meta requestMetadata, region string) (*url.URL, error) {
	host := c.endpointURL.Host
	if cmn.IsAmazonHost(hostOnly(host)) {
		host = cmn.AmazonRegionalEndpoint(region)
	}

	scheme := c.endpointURL.Scheme
	var path string
	bucket, object := meta.bucketName, meta.objectName
	switch {
	case bucket == "":
		path = "/"
	case c.pathStyle(method, meta):
		path = "/" + cmn.EncodeSegment(bucket) + "/"
		if object != "" {
			path += cmn.EncodeObjectName(object)
		}
	default:
		host = bucket + "." + host
		path = "/"
		if object != "" {
			path += cmn.EncodeObjectName(object)
		}
	}

	u := &url.URL{Scheme: scheme, Host: host, RawPath: path, Path: mustPathUnescape(path)}
	if len(meta.queryValues) > 0 {
		u.RawQuery = cmn.QueryEncode(meta.queryValues)
	}
	return u, nil
}

// pathStyle reports whether the request must avoid virtual-hosted
// addressing: bucket creation, location discovery, dotted buckets over
// TLS, and IP-literal endpoints.
func (c *Client) pathStyle(method string, meta requestMetadata) bool {
	if method == http.MethodPut && meta.objectName == "" && len(meta.queryValues) == 0 {
		return true
	}
	if _, ok := meta.queryValues[cmn.QparamLocation]; ok {
		return true
	}
	if strings.Contains(meta.bucketName, ".") && c.secure {
		return true
	}
	return isIPHost(hostOnly(c.endpointURL.Host))
}

var ipv4RX = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

func isIPHost(host string) bool {
	return ipv4RX.MatchString(host) || strings.Contains(host, ":")
}

func hostOnly(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return strings.Trim(hostport, "[]")
}

// hostHeader drops the port when it is the scheme default.
func hostHeader(u *url.URL) string {
	host, port := hostOnly(u.Host), u.Port()
	if port == "" || (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return u.Host
}

func mustPathUnescape(p string) string {
	s, err := url.PathUnescape(p)
	if err != nil {
		return p
	}
	return s
}

/////////////////////////
// execution and trace //
/////////////////////////

var traceRedactRX = regexp.MustCompile(`(Signature=)[0-9a-f]+|(Credential=)[^,\s&]+`)

func redactTrace(dump []byte) []byte {
	return traceRedactRX.ReplaceAll(dump, []byte("$1$2*REDACTED*"))
}

// do runs the request, records metrics, and emits trace and log output.
// Transport failures come back wrapped as KindTransport.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	reqID := xid.New().String()
	if c.log != nil {
		c.log.Debug("s3.request.begin",
			"id", reqID, "method", req.Method, "host", req.Host, "path", req.URL.Path)
	}
	if w := c.traceWriter(); w != nil {
		if dump, err := httputil.DumpRequestOut(req, false); err == nil {
			w.Write(redactTrace(dump))
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	dur := time.Since(start)
	if err != nil {
		c.stats.Error(KindTransport.String())
		if c.log != nil {
			c.log.Warn("s3.request.transport_failure", "id", reqID, "error", err)
		}
		return nil, transportErr(errors.Wrap(err, "execute "+req.Method))
	}

	c.stats.Request(req.Method, resp.StatusCode, dur)
	c.stats.AddSent(req.ContentLength)
	if resp.ContentLength > 0 {
		c.stats.AddReceived(resp.ContentLength)
	}
	if c.log != nil {
		c.log.Debug("s3.request.done",
			"id", reqID, "status", resp.StatusCode, "duration", dur)
	}
	if w := c.traceWriter(); w != nil {
		if dump, err := httputil.DumpResponse(resp, false); err == nil {
			w.Write(redactTrace(dump))
		}
	}
	return resp, nil
}

// closeResponse discards up to 4 KiB of unread body and closes it; the
// connection returns to the pool when that empties the body.
func closeResponse(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

///////////////////////
// region resolution //
///////////////////////

// resolveRegion returns the region for bucket: the configured region when
// pinned, otherwise the cache, otherwise GetBucketLocation discovery.
func (c *Client) resolveRegion(ctx context.Context, bucket string) (string, error) {
	if c.region != "" {
		return c.region, nil
	}
	if bucket == "" {
		return cmn.DefaultRegion, nil
	}
	if region := c.regionCache.Get(bucket); region != "" {
		return region, nil
	}

	region, err := c.getBucketLocation(ctx, bucket)
	if err != nil {
		// anonymous or restricted callers cannot read the location;
		// proceed with the default rather than failing the operation
		if IsKind(err, KindAuth) {
			return cmn.DefaultRegion, nil
		}
		return "", err
	}
	c.regionCache.Set(bucket, region)
	if c.log != nil {
		c.log.Debug("s3.region.discovered", "bucket", bucket, "region", region)
	}
	return region, nil
}

// getBucketLocation issues GET /?location, always signed against
// us-east-1.
func (c *Client) getBucketLocation(ctx context.Context, bucket string) (string, error) {
	resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{
		bucketName:     bucket,
		queryValues:    url.Values{cmn.QparamLocation: {""}},
		overrideRegion: cmn.DefaultRegion,
	})
	if err != nil {
		return "", err
	}
	defer closeResponse(resp)

	var lc struct {
		Location string `xml:",chardata"`
	}
	if err := xmlDecode(resp.Body, &lc); err != nil {
		return "", err
	}
	return cmn.NormalizeRegion(lc.Location), nil
}
