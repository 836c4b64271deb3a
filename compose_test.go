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
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cloudrift/s3core/cmn"
)

// composeServer serves HEADs with canned sizes and records copy requests.
type composeServer struct {
	mu       sync.Mutex
	sizes    map[string]int64 // object name -> size
	copies   []copyRecord
	initiate int
	complete int
}

type copyRecord struct {
	source string
	rng    string
	partNo string
}

func (s *composeServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		object := strings.TrimPrefix(r.URL.Path, "/bucket/")
		switch {
		case r.Method == http.MethodHead:
			s.mu.Lock()
			size, ok := s.sizes[object]
			s.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set(cmn.HdrContentLength, strconv.FormatInt(size, 10))
			w.Header().Set(cmn.HdrETag, `"etag-`+object+`"`)

		case r.Method == http.MethodPost && q.Has("uploads"):
			s.mu.Lock()
			s.initiate++
			s.mu.Unlock()
			w.Header().Set(cmn.HdrContentType, "application/xml")
			fmt.Fprint(w, `<?xml version="1.0"?><InitiateMultipartUploadResult><UploadId>COMPOSE-1</UploadId></InitiateMultipartUploadResult>`)

		case r.Method == http.MethodPut && r.Header.Get(cmn.HdrAmzCopySource) != "":
			s.mu.Lock()
			s.copies = append(s.copies, copyRecord{
				source: r.Header.Get(cmn.HdrAmzCopySource),
				rng:    r.Header.Get(cmn.HdrAmzCopySourceRange),
				partNo: q.Get("partNumber"),
			})
			s.mu.Unlock()
			w.Header().Set(cmn.HdrContentType, "application/xml")
			fmt.Fprint(w, `<?xml version="1.0"?><CopyObjectResult><ETag>"copied"</ETag></CopyObjectResult>`)

		case r.Method == http.MethodPost && q.Get("uploadId") == "COMPOSE-1":
			s.mu.Lock()
			s.complete++
			s.mu.Unlock()
			w.Header().Set(cmn.HdrContentType, "application/xml")
			fmt.Fprint(w, `<?xml version="1.0"?><CompleteMultipartUploadResult><ETag>"composed-etag"</ETag></CompleteMultipartUploadResult>`)

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func TestComposeObjectTwoSources(t *testing.T) {
	srv := &composeServer{sizes: map[string]int64{"a": 5 * mib, "b": 10 * mib}}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	info, err := c.ComposeObject(context.Background(),
		CopyDestOptions{Bucket: "bucket", Object: "joined"},
		CopySrcOptions{Bucket: "bucket", Object: "a"},
		CopySrcOptions{Bucket: "bucket", Object: "b"},
	)
	if err != nil {
		t.Fatalf("ComposeObject: %v", err)
	}
	if info.ETag != "composed-etag" || info.Size != 15*mib {
		t.Fatalf("info %+v", info)
	}
	if srv.initiate != 1 || srv.complete != 1 {
		t.Fatalf("initiate %d complete %d", srv.initiate, srv.complete)
	}
	if len(srv.copies) != 2 {
		t.Fatalf("part copies %d, want 2", len(srv.copies))
	}
	if srv.copies[0].source != "/bucket/a" || srv.copies[1].source != "/bucket/b" {
		t.Fatalf("copy sources %+v", srv.copies)
	}
	if srv.copies[0].rng != fmt.Sprintf("bytes=0-%d", 5*mib-1) {
		t.Fatalf("first range %q", srv.copies[0].rng)
	}
	if srv.copies[1].rng != fmt.Sprintf("bytes=0-%d", 10*mib-1) {
		t.Fatalf("second range %q", srv.copies[1].rng)
	}
	if srv.copies[0].partNo != "1" || srv.copies[1].partNo != "2" {
		t.Fatalf("part numbers %+v", srv.copies)
	}
}

func TestComposeObjectSingleRangedSourceFastPath(t *testing.T) {
	srv := &composeServer{sizes: map[string]int64{"a": 10 * mib}}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	info, err := c.ComposeObject(context.Background(),
		CopyDestOptions{Bucket: "bucket", Object: "slice"},
		CopySrcOptions{Bucket: "bucket", Object: "a", Offset: mib, Length: 2 * mib},
	)
	if err != nil {
		t.Fatalf("ComposeObject: %v", err)
	}
	if srv.initiate != 0 {
		t.Fatal("single-fragment compose must not open a multipart upload")
	}
	if len(srv.copies) != 1 {
		t.Fatalf("copies %d, want 1", len(srv.copies))
	}
	if want := fmt.Sprintf("bytes=%d-%d", mib, 3*mib-1); srv.copies[0].rng != want {
		t.Fatalf("range %q, want %q", srv.copies[0].rng, want)
	}
	if info.Size != 2*mib {
		t.Fatalf("size %d", info.Size)
	}
}

func TestCopyObjectPlain(t *testing.T) {
	srv := &composeServer{sizes: map[string]int64{"src": 3 * mib}}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	info, err := c.CopyObject(context.Background(),
		CopyDestOptions{Bucket: "bucket", Object: "dst"},
		CopySrcOptions{Bucket: "bucket", Object: "src"},
	)
	if err != nil {
		t.Fatalf("CopyObject: %v", err)
	}
	if info.ETag != "copied" {
		t.Fatalf("etag %q", info.ETag)
	}
	if len(srv.copies) != 1 || srv.copies[0].rng != "" {
		t.Fatalf("copies %+v, want one un-ranged copy", srv.copies)
	}
}

func TestComposeValidation(t *testing.T) {
	srv := &composeServer{sizes: map[string]int64{"small": mib, "big": 10 * mib}}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	c := newTestClient(t, ts.URL, Options{Region: "us-east-1", Creds: testCreds()})
	ctx := context.Background()
	dst := CopyDestOptions{Bucket: "bucket", Object: "out"}

	_, err := c.ComposeObject(ctx, dst)
	if !IsKind(err, KindArgument) {
		t.Fatalf("no sources: %v", err)
	}

	// non-terminal source below the part-size minimum
	_, err = c.ComposeObject(ctx, dst,
		CopySrcOptions{Bucket: "bucket", Object: "small"},
		CopySrcOptions{Bucket: "bucket", Object: "big"},
	)
	if !IsKind(err, KindArgument) {
		t.Fatalf("undersized non-terminal source: %v", err)
	}

	// offset beyond the object
	_, err = c.ComposeObject(ctx, dst,
		CopySrcOptions{Bucket: "bucket", Object: "big", Offset: 20 * mib},
	)
	if !IsKind(err, KindArgument) {
		t.Fatalf("offset out of range: %v", err)
	}

	// range past the end
	_, err = c.ComposeObject(ctx, dst,
		CopySrcOptions{Bucket: "bucket", Object: "big", Offset: 5 * mib, Length: 6 * mib},
	)
	if !IsKind(err, KindArgument) {
		t.Fatalf("range past end: %v", err)
	}
}

func TestSplitFragments(t *testing.T) {
	tests := []struct {
		name       string
		length     int64
		lastSource bool
		wantCuts   []int64
	}{
		{name: "single small", length: 3 * mib, lastSource: true, wantCuts: []int64{3 * mib}},
		{name: "exact max", length: cmn.MaxPartSize, lastSource: true, wantCuts: []int64{cmn.MaxPartSize}},
		{
			name: "max plus one keeps min tail", length: cmn.MaxPartSize + 1, lastSource: false,
			wantCuts: []int64{cmn.MaxPartSize - cmn.MinPartSize + 1, cmn.MinPartSize},
		},
		{
			name: "max plus one last source", length: cmn.MaxPartSize + 1, lastSource: true,
			wantCuts: []int64{cmn.MaxPartSize, 1},
		},
		{
			name: "double max", length: 2 * cmn.MaxPartSize, lastSource: true,
			wantCuts: []int64{cmn.MaxPartSize, cmn.MaxPartSize},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frags := splitFragments(0, 0, tc.length, tc.lastSource)
			if len(frags) != len(tc.wantCuts) {
				t.Fatalf("fragments %d, want %d", len(frags), len(tc.wantCuts))
			}
			var offset, total int64
			for i, f := range frags {
				cut := f.end - f.start + 1
				if cut != tc.wantCuts[i] {
					t.Fatalf("fragment %d is %d bytes, want %d", i, cut, tc.wantCuts[i])
				}
				if f.start != offset {
					t.Fatalf("fragment %d starts at %d, want %d", i, f.start, offset)
				}
				offset += cut
				total += cut
			}
			if total != tc.length {
				t.Fatalf("fragments cover %d bytes, want %d", total, tc.length)
			}
		})
	}
}
