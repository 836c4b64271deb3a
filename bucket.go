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

	"github.com/cloudrift/s3core/cmn"
)

// MakeBucketOptions configures MakeBucket.
type MakeBucketOptions struct {
	Region     string // location constraint; empty means us-east-1
	ObjectLock bool   // enable object locking at creation
}

// MakeBucket creates a bucket. A non-default region is carried in the
// CreateBucketConfiguration body; us-east-1 takes an empty body.
func (c *Client) MakeBucket(ctx context.Context, bucket string, opts MakeBucketOptions) error {
	if err := cmn.CheckBucketName(bucket); err != nil {
		return argErr("%v", err)
	}
	region := cmn.NormalizeRegion(opts.Region)
	if c.region != "" && opts.Region != "" && region != c.region {
		return argErr("bucket region %q conflicts with configured region %q", region, c.region)
	}

	meta := requestMetadata{
		bucketName:     bucket,
		overrideRegion: region,
	}
	if region != cmn.DefaultRegion {
		body, err := xmlBody(createBucketConfiguration{Location: region})
		if err != nil {
			return err
		}
		meta.content = body
	}
	if opts.ObjectLock {
		meta.customHeader = http.Header{}
		meta.customHeader.Set(cmn.HdrAmzObjectLockEnabled, "true")
	}

	resp, err := c.executeMethod(ctx, http.MethodPut, meta)
	if err != nil {
		return err
	}
	closeResponse(resp)
	c.regionCache.Set(bucket, region)
	if c.log != nil {
		c.log.Debug("s3.make_bucket", "bucket", bucket, "region", region)
	}
	return nil
}

// RemoveBucket deletes an empty bucket and drops its region cache entry.
func (c *Client) RemoveBucket(ctx context.Context, bucket string) error {
	resp, err := c.executeMethod(ctx, http.MethodDelete, requestMetadata{bucketName: bucket})
	if err != nil {
		return err
	}
	closeResponse(resp)
	c.regionCache.Invalidate(bucket)
	return nil
}

// BucketExists probes the bucket with HEAD. NotFound maps to false with a
// nil error; every other failure propagates.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	resp, err := c.executeMethod(ctx, http.MethodHead, requestMetadata{bucketName: bucket})
	if err != nil {
		if IsKind(err, KindNotFound) {
			return false, nil
		}
		return false, err
	}
	closeResponse(resp)
	return true, nil
}

// ListBuckets returns all buckets owned by the caller.
func (c *Client) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{})
	if err != nil {
		return nil, err
	}
	defer closeResponse(resp)

	var result listAllMyBucketsResult
	if err := xmlDecode(resp.Body, &result); err != nil {
		return nil, err
	}
	return result.Buckets, nil
}

// GetBucketLocation returns the bucket's region, going through the shared
// cache.
func (c *Client) GetBucketLocation(ctx context.Context, bucket string) (string, error) {
	if err := cmn.CheckBucketName(bucket); err != nil {
		return "", argErr("%v", err)
	}
	if region := c.regionCache.Get(bucket); region != "" {
		return region, nil
	}
	region, err := c.getBucketLocation(ctx, bucket)
	if err != nil {
		return "", err
	}
	c.regionCache.Set(bucket, region)
	return region, nil
}

func subresourceQuery(name string) url.Values {
	return url.Values{name: {""}}
}
