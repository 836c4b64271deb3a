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
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/cloudrift/s3core/cmn"
)

// PutObjectOptions configures a write. UserMetadata keys are categorized
// by the pipeline: recognized standard headers pass through, recognized
// AWS tokens become x-amz-*, everything else becomes x-amz-meta-*.
type PutObjectOptions struct {
	ContentType  string
	UserMetadata map[string]string
	SSE          cmn.SSE
	StorageClass string

	// PartSize overrides the computed multipart part size; 0 derives it
	// from the object size. Must be a multiple of 5 MiB when set.
	PartSize int64

	// NumThreads > 1 uploads parts concurrently; part buffers are held
	// in memory while in flight.
	NumThreads int
}

func (o *PutObjectOptions) header() http.Header {
	h := http.Header{}
	if o.ContentType != "" {
		h.Set(cmn.HdrContentType, o.ContentType)
	}
	if o.StorageClass != "" {
		h.Set(cmn.HdrAmzStorageClass, o.StorageClass)
	}
	for k, v := range o.UserMetadata {
		h.Set(k, v)
	}
	if o.SSE != nil {
		o.SSE.Apply(h)
	}
	return h
}

// PutObject writes reader to bucket/object. A known size of at most
// 5 GiB, and at most PartSize when that is set, goes up as one request
// (chunked-signed over plain HTTP with credentials); anything larger goes
// through the multipart protocol. size < 0 means unknown: such a stream
// goes up as one request when it fits in the first part, otherwise as
// multipart.
func (c *Client) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutObjectOptions) (ObjectInfo, error) {
	if err := c.checkSSE(opts.SSE); err != nil {
		return ObjectInfo{}, err
	}
	if size > cmn.MaxObjectSize {
		return ObjectInfo{}, argErr("object size %s exceeds %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(cmn.MaxObjectSize))
	}
	if opts.PartSize != 0 {
		if opts.PartSize < cmn.MinPartSize || opts.PartSize%cmn.MinPartSize != 0 {
			return ObjectInfo{}, argErr("part size must be a multiple of %s",
				humanize.IBytes(cmn.MinPartSize))
		}
	}

	switch {
	case size < 0:
		return c.putObjectUnknownSize(ctx, bucket, object, reader, opts)
	case size > cmn.MaxPartSize || (opts.PartSize != 0 && size > opts.PartSize):
		return c.putObjectMultipart(ctx, bucket, object, reader, size, opts)
	default:
		return c.putObjectSingle(ctx, bucket, object, reader, size, opts)
	}
}

// putObjectSingle performs the one-request write.
func (c *Client) putObjectSingle(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutObjectOptions) (ObjectInfo, error) {
	resp, err := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:    bucket,
		objectName:    object,
		customHeader:  opts.header(),
		contentBody:   reader,
		contentLength: size,
		streamUpload:  true,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	closeResponse(resp)
	return ObjectInfo{
		Key:       object,
		ETag:      trimETag(resp.Header.Get(cmn.HdrETag)),
		Size:      size,
		VersionID: resp.Header.Get(cmn.HdrAmzVersionID),
	}, nil
}

// putObjectMultipart drives the known-size multipart path.
func (c *Client) putObjectMultipart(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutObjectOptions) (ObjectInfo, error) {
	plan, err := c.partPlan(size, opts.PartSize)
	if err != nil {
		return ObjectInfo{}, err
	}

	uploadID, err := c.InitiateMultipartUpload(ctx, bucket, object, opts.header())
	if err != nil {
		return ObjectInfo{}, err
	}

	var parts []PartInfo
	if opts.NumThreads > 1 {
		parts, err = c.uploadPartsParallel(ctx, bucket, object, uploadID, reader, plan, opts)
	} else {
		parts, err = c.uploadPartsSequential(ctx, bucket, object, uploadID, reader, plan, opts)
	}
	if err != nil {
		return ObjectInfo{}, c.abortOnFailure(ctx, bucket, object, uploadID, err)
	}

	info, err := c.CompleteMultipartUpload(ctx, bucket, object, uploadID, parts)
	if err != nil {
		return ObjectInfo{}, c.abortOnFailure(ctx, bucket, object, uploadID, err)
	}
	info.Size = size
	return info, nil
}

func (c *Client) partPlan(size, override int64) (cmn.PartPlan, error) {
	if override == 0 {
		plan, err := cmn.CalculatePartPlan(size)
		if err != nil {
			return cmn.PartPlan{}, argErr("%v", err)
		}
		return plan, nil
	}
	count := size / override
	last := size - count*override
	if last == 0 {
		last = override
	} else {
		count++
	}
	if count > cmn.MaxMultipartCount {
		return cmn.PartPlan{}, argErr("part size %s yields %d parts, limit is %d",
			humanize.IBytes(uint64(override)), count, cmn.MaxMultipartCount)
	}
	return cmn.PartPlan{PartSize: override, PartCount: int(count), LastPartSize: last}, nil
}

func (c *Client) uploadPartsSequential(ctx context.Context, bucket, object, uploadID string, reader io.Reader, plan cmn.PartPlan, opts PutObjectOptions) ([]PartInfo, error) {
	parts := make([]PartInfo, 0, plan.PartCount)
	for number := 1; number <= plan.PartCount; number++ {
		partSize := plan.PartSize
		if number == plan.PartCount {
			partSize = plan.LastPartSize
		}
		part, err := c.UploadPart(ctx, bucket, object, uploadID, number,
			io.LimitReader(reader, partSize), partSize, opts.SSE)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// uploadPartsParallel reads sequentially but uploads concurrently; the
// Complete ordering is restored from part numbers.
func (c *Client) uploadPartsParallel(ctx context.Context, bucket, object, uploadID string, reader io.Reader, plan cmn.PartPlan, opts PutObjectOptions) ([]PartInfo, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.NumThreads)

	parts := make([]PartInfo, plan.PartCount)
	for number := 1; number <= plan.PartCount; number++ {
		partSize := plan.PartSize
		if number == plan.PartCount {
			partSize = plan.LastPartSize
		}
		buf := make([]byte, partSize)
		if _, err := io.ReadFull(reader, buf); err != nil {
			g.Wait()
			return nil, transportErr(err)
		}
		g.Go(func() error {
			part, err := c.UploadPart(gctx, bucket, object, uploadID, number,
				bytes.NewReader(buf), int64(len(buf)), opts.SSE)
			if err != nil {
				return err
			}
			parts[number-1] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// putObjectUnknownSize probes partSize+1 bytes per round; a short first
// probe degrades to the single-request path.
func (c *Client) putObjectUnknownSize(ctx context.Context, bucket, object string, reader io.Reader, opts PutObjectOptions) (ObjectInfo, error) {
	partSize := opts.PartSize
	if partSize == 0 {
		plan, err := c.partPlan(cmn.MaxObjectSize, 0)
		if err != nil {
			return ObjectInfo{}, err
		}
		partSize = plan.PartSize
	}

	buf := make([]byte, partSize+1)
	fill, eof, err := fillBuf(reader, buf, 0)
	if err != nil {
		return ObjectInfo{}, err
	}
	if eof && int64(fill) <= partSize {
		return c.putObjectSingle(ctx, bucket, object, bytes.NewReader(buf[:fill]), int64(fill), opts)
	}

	uploadID, err := c.InitiateMultipartUpload(ctx, bucket, object, opts.header())
	if err != nil {
		return ObjectInfo{}, err
	}

	var (
		parts []PartInfo
		total int64
	)
	for number := 1; ; number++ {
		uploadLen := int64(fill)
		if uploadLen > partSize {
			uploadLen = partSize
		}
		part, upErr := c.UploadPart(ctx, bucket, object, uploadID, number,
			bytes.NewReader(buf[:uploadLen]), uploadLen, opts.SSE)
		if upErr != nil {
			return ObjectInfo{}, c.abortOnFailure(ctx, bucket, object, uploadID, upErr)
		}
		parts = append(parts, part)
		total += uploadLen

		carry := copy(buf, buf[uploadLen:fill])
		if eof && carry == 0 {
			break
		}
		if fill, eof, err = fillBuf(reader, buf, carry); err != nil {
			return ObjectInfo{}, c.abortOnFailure(ctx, bucket, object, uploadID, err)
		}
	}

	info, err := c.CompleteMultipartUpload(ctx, bucket, object, uploadID, parts)
	if err != nil {
		return ObjectInfo{}, c.abortOnFailure(ctx, bucket, object, uploadID, err)
	}
	info.Size = total
	return info, nil
}

// fillBuf tops buf up from offset and reports the filled length and
// whether the stream is exhausted.
func fillBuf(r io.Reader, buf []byte, offset int) (fill int, eof bool, err error) {
	n, readErr := io.ReadFull(r, buf[offset:])
	fill = offset + n
	switch readErr {
	case nil:
		return fill, false, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return fill, true, nil
	default:
		return fill, false, transportErr(readErr)
	}
}
