// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"pkt.systems/pslog"

	"github.com/cloudrift/s3core/cmn"
	"github.com/cloudrift/s3core/regions"
	"github.com/cloudrift/s3core/stats"
)

const (
	libName    = "s3core"
	libVersion = "1.0.0"

	// DefaultTimeout bounds connection setup and the wait for response
	// headers on the default transport.
	DefaultTimeout = 15 * time.Minute
)

type (
	// Credentials holds a static access key pair with an optional STS
	// session token. A nil *Credentials puts the client in anonymous mode.
	Credentials struct {
		AccessKey    string
		SecretKey    string
		SessionToken string
	}

	// Options configures a Client. The zero value is usable: anonymous
	// access over HTTP with the shared region cache.
	Options struct {
		Region    string // pins every bucket to this region when set
		Creds     *Credentials
		Secure    bool
		Transport http.RoundTripper

		AppName    string
		AppVersion string

		Logger    pslog.Logger
		TraceSink io.Writer // redacted wire traces, nil disables

		Stats       *stats.Metrics
		RegionCache *regions.Cache
	}

	// Client executes operations against one endpoint. Safe for
	// concurrent use. Immutable after construction except app info,
	// trace sink, and the request timeout.
	Client struct {
		endpointURL *url.URL
		region      string
		creds       *Credentials
		secure      bool
		httpClient  *http.Client
		log         pslog.Logger
		stats       *stats.Metrics
		regionCache *regions.Cache

		mu        sync.RWMutex
		appInfo   string
		traceSink io.Writer
	}
)

// DefaultTransport returns the transport used when Options.Transport is
// nil: connection pooling with 15-minute phase timeouts, wrapped for
// OpenTelemetry propagation.
func DefaultTransport() http.RoundTripper {
	return otelhttp.NewTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: DefaultTimeout,
		ExpectContinueTimeout: time.Second,
	})
}

// New validates the endpoint and constructs a client. endpoint is either
// "host[:port]" or a URL with an empty path; the URL form overrides
// opts.Secure with its scheme.
func New(endpoint string, opts Options) (*Client, error) {
	epURL, secure, err := parseEndpoint(endpoint, opts.Secure)
	if err != nil {
		return nil, err
	}
	if opts.Creds != nil {
		if opts.Creds.AccessKey == "" || opts.Creds.SecretKey == "" {
			return nil, argErr("credentials require both access key and secret key")
		}
	}

	transport := opts.Transport
	if transport == nil {
		transport = DefaultTransport()
	}
	cache := opts.RegionCache
	if cache == nil {
		cache = regions.Default
	}
	// An empty region stays empty so per-bucket discovery runs;
	// NormalizeRegion applies only to an explicitly configured value.
	region := opts.Region
	if region != "" {
		region = cmn.NormalizeRegion(region)
	}
	c := &Client{
		endpointURL: epURL,
		region:      region,
		creds:       opts.Creds,
		secure:      secure,
		httpClient:  &http.Client{Transport: transport},
		log:         opts.Logger,
		stats:       opts.Stats,
		regionCache: cache,
	}
	c.SetAppInfo(opts.AppName, opts.AppVersion)
	if opts.TraceSink != nil {
		c.TraceOn(opts.TraceSink)
	}
	return c, nil
}

func parseEndpoint(endpoint string, secure bool) (*url.URL, bool, error) {
	if endpoint == "" {
		return nil, false, argErr("empty endpoint")
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, false, argErr("invalid endpoint URL %q: %v", endpoint, err)
		}
		switch u.Scheme {
		case "http":
			secure = false
		case "https":
			secure = true
		default:
			return nil, false, argErr("endpoint scheme must be http or https, got %q", u.Scheme)
		}
		if u.Path != "" && u.Path != "/" {
			return nil, false, argErr("endpoint URL must not carry a path, got %q", u.Path)
		}
		if err := checkHostPort(u.Host); err != nil {
			return nil, false, err
		}
		u.Path = ""
		u.RawQuery = ""
		u.Fragment = ""
		return u, secure, nil
	}

	if err := checkHostPort(endpoint); err != nil {
		return nil, false, err
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: endpoint}, secure, nil
}

func checkHostPort(hostport string) error {
	host := hostport
	if h, port, err := net.SplitHostPort(hostport); err == nil {
		host = h
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return argErr("invalid endpoint port %q", port)
		}
	}
	host = strings.Trim(host, "[]")
	if !cmn.IsValidHost(host) {
		return argErr("invalid endpoint host %q", host)
	}
	return nil
}

// EndpointURL returns a copy of the configured endpoint.
func (c *Client) EndpointURL() *url.URL {
	u := *c.endpointURL
	return &u
}

// SetAppInfo appends "name/version" to the User-Agent of subsequent
// requests.
func (c *Client) SetAppInfo(name, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.appInfo = ""
		return
	}
	c.appInfo = name
	if version != "" {
		c.appInfo += "/" + version
	}
}

func (c *Client) userAgent() string {
	c.mu.RLock()
	app := c.appInfo
	c.mu.RUnlock()
	ua := libName + "/" + libVersion
	if app != "" {
		ua += " " + app
	}
	return ua
}

// TraceOn directs redacted request/response traces to w. TraceOff stops
// tracing. Both affect only requests issued afterwards.
func (c *Client) TraceOn(w io.Writer) {
	c.mu.Lock()
	c.traceSink = w
	c.mu.Unlock()
}

func (c *Client) TraceOff() {
	c.mu.Lock()
	c.traceSink = nil
	c.mu.Unlock()
}

func (c *Client) traceWriter() io.Writer {
	c.mu.RLock()
	w := c.traceSink
	c.mu.RUnlock()
	return w
}

// SetTimeout replaces the whole-request timeout on subsequently issued
// requests. Zero restores no client-level deadline.
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

func (c *Client) anonymous() bool { return c.creds == nil }
