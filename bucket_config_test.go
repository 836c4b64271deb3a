// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudrift/s3core/cmn"
)

// subresourceServer stores bucket subresource documents keyed by query
// parameter and answers GET/PUT/DELETE on them.
type subresourceServer struct {
	mu   sync.Mutex
	docs map[string]string // subresource -> body
}

func newSubresourceServer() *subresourceServer {
	return &subresourceServer{docs: make(map[string]string)}
}

func (s *subresourceServer) handler(t *testing.T, names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var sub string
		for _, name := range names {
			if q.Has(name) {
				sub = name
				break
			}
		}
		if sub == "" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			if r.Header.Get("Content-MD5") == "" {
				t.Errorf("PUT ?%s misses Content-MD5", sub)
			}
			body, _ := io.ReadAll(r.Body)
			s.docs[sub] = string(body)

		case http.MethodGet:
			doc, ok := s.docs[sub]
			if !ok {
				w.Header().Set(cmn.HdrContentType, "application/xml")
				w.WriteHeader(http.StatusNotFound)
				code := "NoSuchConfiguration"
				switch sub {
				case "policy":
					code = "NoSuchBucketPolicy"
				case "lifecycle":
					code = "NoSuchLifecycleConfiguration"
				}
				fmt.Fprintf(w, `<?xml version="1.0"?><Error><Code>%s</Code><Message>absent</Message></Error>`, code)
				return
			}
			fmt.Fprint(w, doc)

		case http.MethodDelete:
			if _, ok := s.docs[sub]; !ok {
				w.Header().Set(cmn.HdrContentType, "application/xml")
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `<?xml version="1.0"?><Error><Code>NoSuchConfiguration</Code><Message>absent</Message></Error>`)
				return
			}
			delete(s.docs, sub)
			w.WriteHeader(http.StatusNoContent)

		default:
			t.Errorf("unexpected method %s", r.Method)
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func TestBucketPolicyRoundTrip(t *testing.T) {
	srv := newSubresourceServer()
	ts := httptest.NewServer(srv.handler(t, "policy"))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	ctx := context.Background()

	got, err := c.GetBucketPolicy(ctx, "bucket")
	if err != nil || got != "" {
		t.Fatalf("absent policy: %q %v", got, err)
	}

	policy := `{"Version":"2012-10-17","Statement":[]}`
	if err := c.SetBucketPolicy(ctx, "bucket", policy); err != nil {
		t.Fatalf("SetBucketPolicy: %v", err)
	}
	if got, err = c.GetBucketPolicy(ctx, "bucket"); err != nil || got != policy {
		t.Fatalf("policy round trip: %q %v", got, err)
	}

	if err := c.DeleteBucketPolicy(ctx, "bucket"); err != nil {
		t.Fatalf("DeleteBucketPolicy: %v", err)
	}
	// deleting again must absorb the NotFound
	if err := c.DeleteBucketPolicy(ctx, "bucket"); err != nil {
		t.Fatalf("DeleteBucketPolicy absent: %v", err)
	}
}

func TestBucketPolicyTooLarge(t *testing.T) {
	c, err := New("localhost:9000", Options{Creds: testCreds()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	big := strings.Repeat("x", cmn.MaxBucketPolicySize+1)
	err = c.SetBucketPolicy(context.Background(), "bucket", big)
	var s3err *Error
	if !AsError(err, &s3err) || s3err.Code != "PolicyTooLarge" {
		t.Fatalf("oversized policy: %v", err)
	}
}

func TestBucketVersioningRoundTrip(t *testing.T) {
	srv := newSubresourceServer()
	ts := httptest.NewServer(srv.handler(t, "versioning"))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	ctx := context.Background()

	if err := c.SetBucketVersioning(ctx, "bucket", VersioningEnabled); err != nil {
		t.Fatalf("SetBucketVersioning: %v", err)
	}
	status, err := c.GetBucketVersioning(ctx, "bucket")
	if err != nil {
		t.Fatalf("GetBucketVersioning: %v", err)
	}
	if status != VersioningEnabled {
		t.Fatalf("status %q", status)
	}
}

func TestBucketLifecycleRoundTrip(t *testing.T) {
	srv := newSubresourceServer()
	ts := httptest.NewServer(srv.handler(t, "lifecycle"))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	ctx := context.Background()

	config := LifecycleConfiguration{Rules: []LifecycleRule{{
		ID:         "expire-tmp",
		Status:     "Enabled",
		Prefix:     "tmp/",
		Expiration: &LifecycleExpiration{Days: 7},
	}}}
	if err := c.SetBucketLifecycle(ctx, "bucket", config); err != nil {
		t.Fatalf("SetBucketLifecycle: %v", err)
	}

	got, err := c.GetBucketLifecycle(ctx, "bucket")
	if err != nil {
		t.Fatalf("GetBucketLifecycle: %v", err)
	}
	if len(got.Rules) != 1 || got.Rules[0].ID != "expire-tmp" || got.Rules[0].Expiration.Days != 7 {
		t.Fatalf("lifecycle %+v", got)
	}

	if err := c.DeleteBucketLifecycle(ctx, "bucket"); err != nil {
		t.Fatalf("DeleteBucketLifecycle: %v", err)
	}
	if got, err = c.GetBucketLifecycle(ctx, "bucket"); err != nil || len(got.Rules) != 0 {
		t.Fatalf("lifecycle after delete: %+v %v", got, err)
	}
}

func TestBucketNotificationRoundTrip(t *testing.T) {
	srv := newSubresourceServer()
	ts := httptest.NewServer(srv.handler(t, "notification"))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	ctx := context.Background()

	config := NotificationConfiguration{Queues: []NotificationQueue{{
		ID:     "q1",
		Queue:  "arn:aws:sqs:us-east-1:444455556666:queue",
		Events: []string{"s3:ObjectCreated:*"},
	}}}
	if err := c.SetBucketNotification(ctx, "bucket", config); err != nil {
		t.Fatalf("SetBucketNotification: %v", err)
	}
	got, err := c.GetBucketNotification(ctx, "bucket")
	if err != nil {
		t.Fatalf("GetBucketNotification: %v", err)
	}
	if len(got.Queues) != 1 || got.Queues[0].Queue != config.Queues[0].Queue {
		t.Fatalf("notification %+v", got)
	}

	if err := c.RemoveAllBucketNotification(ctx, "bucket"); err != nil {
		t.Fatalf("RemoveAllBucketNotification: %v", err)
	}
	if got, err = c.GetBucketNotification(ctx, "bucket"); err != nil || len(got.Queues) != 0 {
		t.Fatalf("notification after clear: %+v %v", got, err)
	}
}

func TestObjectLockConfigRoundTrip(t *testing.T) {
	srv := newSubresourceServer()
	ts := httptest.NewServer(srv.handler(t, "object-lock"))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	ctx := context.Background()

	if err := c.SetObjectLockConfig(ctx, "bucket", ObjectLockConfiguration{
		Mode: RetentionGovernance,
		Days: 30,
	}); err != nil {
		t.Fatalf("SetObjectLockConfig: %v", err)
	}
	got, err := c.GetObjectLockConfig(ctx, "bucket")
	if err != nil {
		t.Fatalf("GetObjectLockConfig: %v", err)
	}
	if got.Enabled != "Enabled" || got.Mode != RetentionGovernance || got.Days != 30 {
		t.Fatalf("object lock %+v", got)
	}
}

func TestObjectRetentionRoundTrip(t *testing.T) {
	var mu sync.Mutex
	store := map[string]string{}
	var bypassSeen bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var sub string
		switch {
		case q.Has("retention"):
			sub = "retention"
		case q.Has("legal-hold"):
			sub = "legal-hold"
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			if r.Header.Get(cmn.HdrAmzBypassGovernance) == "true" {
				bypassSeen = true
			}
			body, _ := io.ReadAll(r.Body)
			store[sub] = string(body)
		case http.MethodGet:
			fmt.Fprint(w, store[sub])
		}
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	ctx := context.Background()
	until := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := c.SetObjectRetention(ctx, "bucket", "obj", "", "BADMODE", until, false); !IsKind(err, KindArgument) {
		t.Fatalf("invalid mode: %v", err)
	}
	if err := c.SetObjectRetention(ctx, "bucket", "obj", "v1", RetentionCompliance, until, true); err != nil {
		t.Fatalf("SetObjectRetention: %v", err)
	}
	if !bypassSeen {
		t.Fatal("bypass-governance header not sent")
	}

	mode, got, err := c.GetObjectRetention(ctx, "bucket", "obj", "v1")
	if err != nil {
		t.Fatalf("GetObjectRetention: %v", err)
	}
	if mode != RetentionCompliance || !got.Equal(until) {
		t.Fatalf("retention %q %v", mode, got)
	}

	if err := c.SetObjectLegalHold(ctx, "bucket", "obj", "", true); err != nil {
		t.Fatalf("SetObjectLegalHold: %v", err)
	}
	hold, err := c.GetObjectLegalHold(ctx, "bucket", "obj", "")
	if err != nil {
		t.Fatalf("GetObjectLegalHold: %v", err)
	}
	if !hold {
		t.Fatal("legal hold not reported as on")
	}
}
