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
	"net/url"
	"time"

	"github.com/cloudrift/s3core/cmn"
)

// GetObjectOptions narrows a read: byte range, conditional headers,
// version selection, and the SSE-C key the object was written with.
type GetObjectOptions struct {
	Offset int64
	Length int64 // 0 means to the end

	MatchETag         string
	NoMatchETag       string
	ModifiedSince     time.Time
	UnmodifiedSince   time.Time
	VersionID         string
	SSE               cmn.SSE
	RequestHeaders    http.Header // extra headers, already wire-shaped
}

func (o *GetObjectOptions) header() (http.Header, error) {
	h := http.Header{}
	for k, v := range o.RequestHeaders {
		h[k] = v
	}
	switch {
	case o.Offset < 0:
		return nil, argErr("negative read offset %d", o.Offset)
	case o.Length < 0:
		return nil, argErr("negative read length %d", o.Length)
	case o.Length > 0:
		h.Set(cmn.HdrRange, fmt.Sprintf("bytes=%d-%d", o.Offset, o.Offset+o.Length-1))
	case o.Offset > 0:
		h.Set(cmn.HdrRange, fmt.Sprintf("bytes=%d-", o.Offset))
	}
	if o.MatchETag != "" {
		h.Set(cmn.HdrIfMatch, "\""+o.MatchETag+"\"")
	}
	if o.NoMatchETag != "" {
		h.Set(cmn.HdrIfNoneMatch, "\""+o.NoMatchETag+"\"")
	}
	if !o.ModifiedSince.IsZero() {
		h.Set(cmn.HdrIfModifiedSince, o.ModifiedSince.UTC().Format(http.TimeFormat))
	}
	if !o.UnmodifiedSince.IsZero() {
		h.Set(cmn.HdrIfUnmodifiedSince, o.UnmodifiedSince.UTC().Format(http.TimeFormat))
	}
	if o.SSE != nil {
		if o.SSE.Type() != cmn.SSETypeC {
			return nil, argErr("reads accept only SSE-C encryption parameters")
		}
		o.SSE.Apply(h)
	}
	return h, nil
}

func (o *GetObjectOptions) query() url.Values {
	if o.VersionID == "" {
		return nil
	}
	return url.Values{"versionId": {o.VersionID}}
}

// Object is a streamed object read: the response body plus its parsed
// metadata. Close releases the connection.
type Object struct {
	io.ReadCloser
	Info ObjectInfo
}

// GetObject streams the object. The returned Object must be fully read
// or closed.
func (c *Client) GetObject(ctx context.Context, bucket, object string, opts GetObjectOptions) (*Object, error) {
	if err := c.checkSSE(opts.SSE); err != nil {
		return nil, err
	}
	header, err := opts.header()
	if err != nil {
		return nil, err
	}
	resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{
		bucketName:   bucket,
		objectName:   object,
		customHeader: header,
		queryValues:  opts.query(),
	})
	if err != nil {
		return nil, err
	}
	return &Object{
		ReadCloser: resp.Body,
		Info:       objectInfoFromResponse(object, resp.Header),
	}, nil
}

// StatObject returns object metadata via HEAD.
func (c *Client) StatObject(ctx context.Context, bucket, object string, opts GetObjectOptions) (ObjectInfo, error) {
	if err := c.checkSSE(opts.SSE); err != nil {
		return ObjectInfo{}, err
	}
	header, err := opts.header()
	if err != nil {
		return ObjectInfo{}, err
	}
	resp, err := c.executeMethod(ctx, http.MethodHead, requestMetadata{
		bucketName:   bucket,
		objectName:   object,
		customHeader: header,
		queryValues:  opts.query(),
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	closeResponse(resp)
	return objectInfoFromResponse(object, resp.Header), nil
}

// RemoveObjectOptions selects a version and the governance bypass for
// locked objects.
type RemoveObjectOptions struct {
	VersionID        string
	BypassGovernance bool
}

// RemoveObject deletes one object.
func (c *Client) RemoveObject(ctx context.Context, bucket, object string, opts RemoveObjectOptions) error {
	meta := requestMetadata{bucketName: bucket, objectName: object}
	if opts.VersionID != "" {
		meta.queryValues = url.Values{"versionId": {opts.VersionID}}
	}
	if opts.BypassGovernance {
		meta.customHeader = http.Header{}
		meta.customHeader.Set(cmn.HdrAmzBypassGovernance, "true")
	}
	resp, err := c.executeMethod(ctx, http.MethodDelete, meta)
	if err != nil {
		return err
	}
	closeResponse(resp)
	return nil
}

// RemoveObjectError reports one failed deletion out of a RemoveObjects
// batch.
type RemoveObjectError struct {
	ObjectName string
	Err        error
}

// RemoveObjects bulk-deletes in batches of up to 1000 keys via
// POST ?delete. Per-key failures stream out on the returned channel; the
// channel closes when the input is exhausted.
func (c *Client) RemoveObjects(ctx context.Context, bucket string, objects <-chan string, opts RemoveObjectOptions) <-chan RemoveObjectError {
	const batchLimit = 1000
	errCh := make(chan RemoveObjectError, 1)

	go func() {
		defer close(errCh)
		for {
			batch := make([]deleteObject, 0, batchLimit)
			for object := range objects {
				batch = append(batch, deleteObject{Key: object})
				if len(batch) == batchLimit {
					break
				}
			}
			if len(batch) == 0 {
				return
			}
			c.removeObjectBatch(ctx, bucket, batch, opts, errCh)
			if len(batch) < batchLimit {
				return
			}
		}
	}()
	return errCh
}

func (c *Client) removeObjectBatch(ctx context.Context, bucket string, batch []deleteObject, opts RemoveObjectOptions, errCh chan<- RemoveObjectError) {
	body, err := xmlBody(deleteObjectsRequest{Quiet: true, Objects: batch})
	if err != nil {
		for _, obj := range batch {
			errCh <- RemoveObjectError{ObjectName: obj.Key, Err: err}
		}
		return
	}
	meta := requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamDelete),
		content:     body,
		contentMD5:  true,
	}
	if opts.BypassGovernance {
		meta.customHeader = http.Header{}
		meta.customHeader.Set(cmn.HdrAmzBypassGovernance, "true")
	}
	resp, execErr := c.executeMethod(ctx, http.MethodPost, meta)
	if execErr != nil {
		for _, obj := range batch {
			errCh <- RemoveObjectError{ObjectName: obj.Key, Err: execErr}
		}
		return
	}
	defer closeResponse(resp)

	var result deleteObjectsResult
	if decErr := xmlDecode(resp.Body, &result); decErr != nil {
		errCh <- RemoveObjectError{Err: decErr}
		return
	}
	for _, failure := range result.Errors {
		errCh <- RemoveObjectError{
			ObjectName: failure.Key,
			Err: &Error{
				Kind:       kindForCode(failure.Code),
				Code:       failure.Code,
				Message:    failure.Message,
				BucketName: bucket,
				ObjectName: failure.Key,
			},
		}
	}
}

// checkSSE rejects SSE parameters that must not travel on this
// connection.
func (c *Client) checkSSE(sse cmn.SSE) error {
	if sse == nil {
		return nil
	}
	if sse.RequiresTLS() && !c.secure {
		return argErr("%s encryption requires a TLS connection", sse.Type())
	}
	return nil
}
