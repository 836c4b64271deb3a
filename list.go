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
	"strconv"

	"github.com/cloudrift/s3core/cmn"
)

// ListObjectsOptions configures a bucket listing.
type ListObjectsOptions struct {
	Prefix string

	// Recursive lists every key under Prefix. When false the listing is
	// delimited by "/" and common prefixes surface as directory entries.
	Recursive bool

	// MaxKeys caps the page size; 0 leaves it to the server.
	MaxKeys int

	// UseV1 selects the marker-paged ListObjects protocol instead of the
	// continuation-token one.
	UseV1 bool
}

func (o *ListObjectsOptions) query() url.Values {
	q := url.Values{}
	if o.Prefix != "" {
		q.Set(cmn.QparamPrefix, o.Prefix)
	}
	if !o.Recursive {
		q.Set(cmn.QparamDelimiter, "/")
	}
	if o.MaxKeys > 0 {
		q.Set(cmn.QparamMaxKeys, strconv.Itoa(o.MaxKeys))
	}
	return q
}

// ListObjects streams the bucket's objects matching opts. The channel is
// lazy: pages are fetched as the consumer drains it. A terminal error is
// delivered as the last element's Err; canceling ctx ends the stream.
func (c *Client) ListObjects(ctx context.Context, bucket string, opts ListObjectsOptions) <-chan ObjectInfo {
	out := make(chan ObjectInfo, 1)
	go func() {
		defer close(out)
		if opts.UseV1 {
			c.listObjectsV1(ctx, bucket, opts, out)
		} else {
			c.listObjectsV2(ctx, bucket, opts, out)
		}
	}()
	return out
}

func (c *Client) listObjectsV2(ctx context.Context, bucket string, opts ListObjectsOptions, out chan<- ObjectInfo) {
	token := ""
	for {
		q := opts.query()
		q.Set(cmn.QparamListType, "2")
		if token != "" {
			q.Set(cmn.QparamContinuationToken, token)
		}
		var page listBucketV2Result
		if err := c.listPage(ctx, bucket, q, &page); err != nil {
			emitObj(ctx, out, ObjectInfo{Err: err})
			return
		}
		if !c.emitListPage(ctx, out, page.Contents, page.CommonPrefixes) {
			return
		}
		if !page.IsTruncated {
			return
		}
		token = page.NextContinuationToken
	}
}

func (c *Client) listObjectsV1(ctx context.Context, bucket string, opts ListObjectsOptions, out chan<- ObjectInfo) {
	marker := ""
	for {
		q := opts.query()
		if marker != "" {
			q.Set(cmn.QparamMarker, marker)
		}
		var page listBucketV1Result
		if err := c.listPage(ctx, bucket, q, &page); err != nil {
			emitObj(ctx, out, ObjectInfo{Err: err})
			return
		}
		if !c.emitListPage(ctx, out, page.Contents, page.CommonPrefixes) {
			return
		}
		if !page.IsTruncated {
			return
		}
		// NextMarker is only sent for delimited listings; otherwise the
		// last key of the page carries the cursor.
		marker = page.NextMarker
		if marker == "" && len(page.Contents) > 0 {
			marker = page.Contents[len(page.Contents)-1].Key
		}
		if marker == "" {
			return
		}
	}
}

func (c *Client) listPage(ctx context.Context, bucket string, q url.Values, result any) error {
	resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{
		bucketName:  bucket,
		queryValues: q,
	})
	if err != nil {
		return err
	}
	defer closeResponse(resp)
	return xmlDecode(resp.Body, result)
}

// emitListPage interleaves objects and synthetic directory entries for
// the page's common prefixes. Returns false once the consumer is gone.
func (c *Client) emitListPage(ctx context.Context, out chan<- ObjectInfo, objects []ObjectInfo, prefixes []commonPrefix) bool {
	for _, obj := range objects {
		obj.ETag = trimETag(obj.ETag)
		if !emitObj(ctx, out, obj) {
			return false
		}
	}
	for _, p := range prefixes {
		if !emitObj(ctx, out, ObjectInfo{Key: p.Prefix, IsDir: true}) {
			return false
		}
	}
	return true
}

func emitObj(ctx context.Context, out chan<- ObjectInfo, obj ObjectInfo) bool {
	select {
	case out <- obj:
		return true
	case <-ctx.Done():
		return false
	}
}

// ListIncompleteUploads streams the bucket's in-progress multipart
// uploads under prefix. withSize additionally sums each upload's
// already-uploaded parts into UploadInfo.Size.
func (c *Client) ListIncompleteUploads(ctx context.Context, bucket, prefix string, recursive, withSize bool) <-chan UploadInfo {
	out := make(chan UploadInfo, 1)
	go func() {
		defer close(out)
		keyMarker, uploadIDMarker := "", ""
		for {
			q := subresourceQuery(cmn.QparamUploads)
			if prefix != "" {
				q.Set(cmn.QparamPrefix, prefix)
			}
			if !recursive {
				q.Set(cmn.QparamDelimiter, "/")
			}
			if keyMarker != "" {
				q.Set(cmn.QparamKeyMarker, keyMarker)
			}
			if uploadIDMarker != "" {
				q.Set(cmn.QparamUploadIDMarker, uploadIDMarker)
			}
			var page listMultipartUploadsResult
			if err := c.listPage(ctx, bucket, q, &page); err != nil {
				emitUpload(ctx, out, UploadInfo{Err: err})
				return
			}
			for _, up := range page.Uploads {
				if withSize {
					size, err := c.uploadedSize(ctx, bucket, up.Key, up.UploadID)
					if err != nil {
						emitUpload(ctx, out, UploadInfo{Err: err})
						return
					}
					up.Size = size
				}
				if !emitUpload(ctx, out, up) {
					return
				}
			}
			for _, p := range page.CommonPrefixes {
				if !emitUpload(ctx, out, UploadInfo{Key: p.Prefix}) {
					return
				}
			}
			if !page.IsTruncated {
				return
			}
			keyMarker, uploadIDMarker = page.NextKeyMarker, page.NextUploadIDMarker
		}
	}()
	return out
}

func emitUpload(ctx context.Context, out chan<- UploadInfo, up UploadInfo) bool {
	select {
	case out <- up:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) uploadedSize(ctx context.Context, bucket, object, uploadID string) (int64, error) {
	parts, err := c.ListObjectParts(ctx, bucket, object, uploadID)
	if err != nil {
		return 0, err
	}
	var size int64
	for _, p := range parts {
		size += p.Size
	}
	return size, nil
}
