// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/cloudrift/s3core/sigv4"
)

// Presign expiry bounds of the query-signature protocol.
const (
	MinPresignExpiry = time.Second
	MaxPresignExpiry = 7 * 24 * time.Hour
)

func checkPresignExpiry(expires time.Duration) error {
	if expires < MinPresignExpiry || expires > MaxPresignExpiry {
		return argErr("presign expiry %v outside %v..%v", expires, MinPresignExpiry, MaxPresignExpiry)
	}
	return nil
}

// Presign returns a URL that authorizes method on bucket/object for the
// duration of expires without credentials. reqParams, when non-nil, are
// extra query parameters covered by the signature (response-content-type
// and friends).
func (c *Client) Presign(ctx context.Context, method, bucket, object string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	if c.anonymous() {
		return nil, argErr("presigning requires credentials")
	}
	if err := checkPresignExpiry(expires); err != nil {
		return nil, err
	}
	if err := c.checkNames(bucket, object); err != nil {
		return nil, err
	}

	region, err := c.resolveRegion(ctx, bucket)
	if err != nil {
		return nil, err
	}
	target, err := c.makeTargetURL(method, requestMetadata{
		bucketName:  bucket,
		objectName:  object,
		queryValues: reqParams,
	}, region)
	if err != nil {
		return nil, err
	}

	req, reqErr := http.NewRequest(method, target.String(), nil)
	if reqErr != nil {
		return nil, protocolErr("build presign request: %v", reqErr)
	}
	req.Host = hostHeader(target)

	signed := sigv4.PreSignV4(req,
		c.creds.AccessKey, c.creds.SecretKey, c.creds.SessionToken,
		region, int64(expires/time.Second))
	return signed.URL, nil
}

// PresignedGetObject presigns a GET of bucket/object.
func (c *Client) PresignedGetObject(ctx context.Context, bucket, object string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	return c.Presign(ctx, http.MethodGet, bucket, object, expires, reqParams)
}

// PresignedHeadObject presigns a HEAD of bucket/object.
func (c *Client) PresignedHeadObject(ctx context.Context, bucket, object string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	return c.Presign(ctx, http.MethodHead, bucket, object, expires, reqParams)
}

// PresignedPutObject presigns a PUT to bucket/object.
func (c *Client) PresignedPutObject(ctx context.Context, bucket, object string, expires time.Duration) (*url.URL, error) {
	return c.Presign(ctx, http.MethodPut, bucket, object, expires, nil)
}
