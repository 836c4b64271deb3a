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
	"sort"
	"strconv"

	"github.com/cloudrift/s3core/cmn"
)

// InitiateMultipartUpload opens a multipart upload and returns its upload
// id. The header carries content type, user metadata, and SSE.
func (c *Client) InitiateMultipartUpload(ctx context.Context, bucket, object string, header http.Header) (string, error) {
	resp, err := c.executeMethod(ctx, http.MethodPost, requestMetadata{
		bucketName:   bucket,
		objectName:   object,
		queryValues:  subresourceQuery(cmn.QparamUploads),
		customHeader: header,
	})
	if err != nil {
		return "", err
	}
	defer closeResponse(resp)

	var result initiateMultipartUploadResult
	if err := xmlDecode(resp.Body, &result); err != nil {
		return "", err
	}
	if result.UploadID == "" {
		return "", protocolErr("initiate response carries no upload id")
	}
	if c.log != nil {
		c.log.Debug("s3.multipart.initiated",
			"bucket", bucket, "object", object, "upload_id", result.UploadID)
	}
	return result.UploadID, nil
}

func multipartQuery(uploadID string, partNumber int) url.Values {
	q := url.Values{}
	q.Set(cmn.QparamUploadID, uploadID)
	if partNumber > 0 {
		q.Set(cmn.QparamPartNumber, strconv.Itoa(partNumber))
	}
	return q
}

// UploadPart uploads one part body of known size and returns its
// PartInfo. partNumber is 1..10000.
func (c *Client) UploadPart(ctx context.Context, bucket, object, uploadID string, partNumber int, body io.Reader, size int64, sse cmn.SSE) (PartInfo, error) {
	if partNumber < 1 || partNumber > cmn.MaxMultipartCount {
		return PartInfo{}, argErr("part number %d outside 1..%d", partNumber, cmn.MaxMultipartCount)
	}
	if size <= 0 || size > cmn.MaxPartSize {
		return PartInfo{}, argErr("part size %d outside 1..%d", size, int64(cmn.MaxPartSize))
	}
	var header http.Header
	if sse != nil {
		header = http.Header{}
		sse.Apply(header)
	}
	resp, err := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:    bucket,
		objectName:    object,
		queryValues:   multipartQuery(uploadID, partNumber),
		customHeader:  header,
		contentBody:   body,
		contentLength: size,
		streamUpload:  true,
	})
	if err != nil {
		return PartInfo{}, err
	}
	closeResponse(resp)
	return PartInfo{
		PartNumber: partNumber,
		ETag:       trimETag(resp.Header.Get(cmn.HdrETag)),
		Size:       size,
	}, nil
}

// UploadPartCopy copies a server-side byte range into a part of the
// upload. header carries x-amz-copy-source[-range] and SSE material.
func (c *Client) UploadPartCopy(ctx context.Context, bucket, object, uploadID string, partNumber int, header http.Header) (PartInfo, error) {
	if partNumber < 1 || partNumber > cmn.MaxMultipartCount {
		return PartInfo{}, argErr("part number %d outside 1..%d", partNumber, cmn.MaxMultipartCount)
	}
	resp, err := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:   bucket,
		objectName:   object,
		queryValues:  multipartQuery(uploadID, partNumber),
		customHeader: header,
	})
	if err != nil {
		return PartInfo{}, err
	}
	defer closeResponse(resp)

	var result copyObjectResult
	if err := xmlDecode(resp.Body, &result); err != nil {
		return PartInfo{}, err
	}
	return PartInfo{
		PartNumber:   partNumber,
		ETag:         trimETag(result.ETag),
		LastModified: result.LastModified,
	}, nil
}

// CompleteMultipartUpload finalizes the upload. Parts are sorted into
// ascending part-number order before the request body is built.
func (c *Client) CompleteMultipartUpload(ctx context.Context, bucket, object, uploadID string, parts []PartInfo) (ObjectInfo, error) {
	if len(parts) == 0 {
		return ObjectInfo{}, argErr("complete requires at least one part")
	}
	sorted := make([]completePart, len(parts))
	for i, p := range parts {
		sorted[i] = completePart{PartNumber: p.PartNumber, ETag: "\"" + p.ETag + "\""}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	body, err := xmlBody(completeMultipartUpload{Parts: sorted})
	if err != nil {
		return ObjectInfo{}, err
	}
	resp, execErr := c.executeMethod(ctx, http.MethodPost, requestMetadata{
		bucketName:  bucket,
		objectName:  object,
		queryValues: multipartQuery(uploadID, 0),
		content:     body,
	})
	if execErr != nil {
		return ObjectInfo{}, execErr
	}
	defer closeResponse(resp)

	var result completeMultipartUploadResult
	if err := xmlDecode(resp.Body, &result); err != nil {
		return ObjectInfo{}, err
	}
	if c.log != nil {
		c.log.Debug("s3.multipart.completed",
			"bucket", bucket, "object", object, "upload_id", uploadID, "parts", len(parts))
	}
	return ObjectInfo{
		Key:  object,
		ETag: trimETag(result.ETag),
	}, nil
}

// AbortMultipartUpload discards the upload and its parts.
func (c *Client) AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error {
	resp, err := c.executeMethod(ctx, http.MethodDelete, requestMetadata{
		bucketName:  bucket,
		objectName:  object,
		queryValues: multipartQuery(uploadID, 0),
	})
	if err != nil {
		return err
	}
	closeResponse(resp)
	return nil
}

// abortOnFailure is the orchestrator cleanup path: best effort, the
// original error always wins.
func (c *Client) abortOnFailure(ctx context.Context, bucket, object, uploadID string, cause error) error {
	if abortErr := c.AbortMultipartUpload(ctx, bucket, object, uploadID); abortErr != nil && c.log != nil {
		c.log.Warn("s3.multipart.abort_failure",
			"bucket", bucket, "object", object, "upload_id", uploadID, "error", abortErr)
	}
	return cause
}

// listObjectParts fetches one page of uploaded parts.
func (c *Client) listObjectParts(ctx context.Context, bucket, object, uploadID string, partNumberMarker, maxParts int) (listPartsResult, error) {
	q := multipartQuery(uploadID, 0)
	if partNumberMarker > 0 {
		q.Set(cmn.QparamPartNumberMarker, strconv.Itoa(partNumberMarker))
	}
	if maxParts > 0 {
		q.Set(cmn.QparamMaxParts, strconv.Itoa(maxParts))
	}
	resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{
		bucketName:  bucket,
		objectName:  object,
		queryValues: q,
	})
	if err != nil {
		return listPartsResult{}, err
	}
	defer closeResponse(resp)

	var result listPartsResult
	if err := xmlDecode(resp.Body, &result); err != nil {
		return listPartsResult{}, err
	}
	return result, nil
}

// ListObjectParts returns every uploaded part of the upload, paging
// through part-number markers.
func (c *Client) ListObjectParts(ctx context.Context, bucket, object, uploadID string) ([]PartInfo, error) {
	var (
		parts  []PartInfo
		marker int
	)
	for {
		page, err := c.listObjectParts(ctx, bucket, object, uploadID, marker, 0)
		if err != nil {
			return nil, err
		}
		for _, p := range page.Parts {
			p.ETag = trimETag(p.ETag)
			parts = append(parts, p)
		}
		if !page.IsTruncated {
			return parts, nil
		}
		marker = page.NextPartNumberMarker
	}
}

func copySourcePath(bucket, object string) string {
	return fmt.Sprintf("/%s/%s", cmn.EncodeSegment(bucket), cmn.EncodeObjectName(object))
}
