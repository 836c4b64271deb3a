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
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cloudrift/s3core/cmn"
)

type (
	// CopySrcOptions names one compose/copy source with an optional byte
	// range, match conditions, and the SSE-C key it was written with.
	CopySrcOptions struct {
		Bucket string
		Object string

		Offset int64
		Length int64 // 0 means to the end

		MatchETag       string
		NoMatchETag     string
		ModifiedSince   time.Time
		UnmodifiedSince time.Time

		SSE cmn.SSE // SSE-C decryption key of the source

		size int64 // resolved by HEAD
		etag string
	}

	// CopyDestOptions names the destination and its write options.
	CopyDestOptions struct {
		Bucket string
		Object string

		UserMetadata    map[string]string
		ReplaceMetadata bool
		SSE             cmn.SSE
	}

	// composeFragment is one server-side part copy: a source index plus
	// the byte range to copy.
	composeFragment struct {
		srcIndex   int
		start, end int64
	}
)

func (s *CopySrcOptions) applyHeaders(h http.Header) {
	h.Set(cmn.HdrAmzCopySource, copySourcePath(s.Bucket, s.Object))
	if s.MatchETag != "" {
		h.Set(cmn.HdrAmzCopySourceIfMatch, "\""+s.MatchETag+"\"")
	}
	if s.NoMatchETag != "" {
		h.Set(cmn.HdrAmzCopySourceIfNoneMatch, "\""+s.NoMatchETag+"\"")
	}
	if !s.ModifiedSince.IsZero() {
		h.Set(cmn.HdrAmzCopySourceIfModifiedSince, s.ModifiedSince.UTC().Format(http.TimeFormat))
	}
	if !s.UnmodifiedSince.IsZero() {
		h.Set(cmn.HdrAmzCopySourceIfUnmodifiedSince, s.UnmodifiedSince.UTC().Format(http.TimeFormat))
	}
	if copier, ok := s.SSE.(cmn.SSECopier); ok {
		copier.ApplyCopySource(h)
	}
}

func (d *CopyDestOptions) applyHeaders(h http.Header) {
	for k, v := range d.UserMetadata {
		h.Set(k, v)
	}
	if d.ReplaceMetadata {
		h.Set(cmn.HdrAmzMetadataDirective, "REPLACE")
	}
	if d.SSE != nil {
		d.SSE.Apply(h)
	}
}

// contribution is the byte length the source adds to the composed
// object; requires size to be resolved.
func (s *CopySrcOptions) contribution() int64 {
	if s.Length > 0 {
		return s.Length
	}
	return s.size - s.Offset
}

// CopyObject performs a server-side copy of one object, optionally
// ranged, and returns the destination's info with the parsed ETag.
func (c *Client) CopyObject(ctx context.Context, dst CopyDestOptions, src CopySrcOptions) (ObjectInfo, error) {
	if err := c.checkSSE(dst.SSE); err != nil {
		return ObjectInfo{}, err
	}
	if err := c.checkSSE(src.SSE); err != nil {
		return ObjectInfo{}, err
	}
	header := http.Header{}
	src.applyHeaders(header)
	dst.applyHeaders(header)
	if src.Offset > 0 || src.Length > 0 {
		// a ranged copy goes through the compose path: one fragment is a
		// plain copy carrying x-amz-copy-source-range, more fragments use
		// multipart part copies
		return c.composeRanged(ctx, dst, src)
	}

	resp, err := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:   dst.Bucket,
		objectName:   dst.Object,
		customHeader: header,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	defer closeResponse(resp)

	var result copyObjectResult
	if err := xmlDecode(resp.Body, &result); err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:          dst.Object,
		ETag:         trimETag(result.ETag),
		LastModified: result.LastModified,
	}, nil
}

func (c *Client) composeRanged(ctx context.Context, dst CopyDestOptions, src CopySrcOptions) (ObjectInfo, error) {
	return c.ComposeObject(ctx, dst, src)
}

// ComposeObject concatenates the byte ranges of srcs into dst using only
// server-side copies. Validation runs in source order before any data
// moves.
func (c *Client) ComposeObject(ctx context.Context, dst CopyDestOptions, srcs ...CopySrcOptions) (ObjectInfo, error) {
	if len(srcs) == 0 {
		return ObjectInfo{}, argErr("compose requires at least one source")
	}
	if err := c.checkSSE(dst.SSE); err != nil {
		return ObjectInfo{}, err
	}

	fragments, totalSize, err := c.planCompose(ctx, srcs)
	if err != nil {
		return ObjectInfo{}, err
	}

	if len(fragments) == 1 {
		return c.copySinglePart(ctx, dst, srcs, fragments[0])
	}

	header := http.Header{}
	dst.applyHeaders(header)
	uploadID, err := c.InitiateMultipartUpload(ctx, dst.Bucket, dst.Object, header)
	if err != nil {
		return ObjectInfo{}, err
	}

	parts := make([]PartInfo, 0, len(fragments))
	for i, frag := range fragments {
		partHeader := http.Header{}
		srcs[frag.srcIndex].applyHeaders(partHeader)
		if dst.SSE != nil {
			dst.SSE.Apply(partHeader)
		}
		partHeader.Set(cmn.HdrAmzCopySourceRange,
			fmt.Sprintf("bytes=%d-%d", frag.start, frag.end))

		part, copyErr := c.UploadPartCopy(ctx, dst.Bucket, dst.Object, uploadID, i+1, partHeader)
		if copyErr != nil {
			return ObjectInfo{}, c.abortOnFailure(ctx, dst.Bucket, dst.Object, uploadID, copyErr)
		}
		parts = append(parts, part)
	}

	info, err := c.CompleteMultipartUpload(ctx, dst.Bucket, dst.Object, uploadID, parts)
	if err != nil {
		return ObjectInfo{}, c.abortOnFailure(ctx, dst.Bucket, dst.Object, uploadID, err)
	}
	info.Size = totalSize
	return info, nil
}

// planCompose HEADs every source, validates sizes in order, and lays out
// the part-copy fragments.
func (c *Client) planCompose(ctx context.Context, srcs []CopySrcOptions) ([]composeFragment, int64, error) {
	var (
		fragments []composeFragment
		totalSize int64
	)
	for i := range srcs {
		src := &srcs[i]
		if i > 0 && src.SSE != nil && src.SSE.Type() != cmn.SSETypeC {
			return nil, 0, argErr("source %d: only the first source may carry non-SSE-C encryption state", i)
		}
		if err := c.checkSSE(src.SSE); err != nil {
			return nil, 0, err
		}

		info, err := c.StatObject(ctx, src.Bucket, src.Object, GetObjectOptions{SSE: src.SSE})
		if err != nil {
			return nil, 0, err
		}
		src.size, src.etag = info.Size, info.ETag

		switch {
		case src.Offset < 0 || src.Offset >= src.size:
			return nil, 0, argErr("source %d: offset %d outside object of %d bytes", i, src.Offset, src.size)
		case src.Length < 0 || src.Offset+src.contribution() > src.size:
			return nil, 0, argErr("source %d: range exceeds object of %d bytes", i, src.size)
		}

		contribution := src.contribution()
		if contribution < cmn.MinPartSize && i != len(srcs)-1 && len(srcs) > 1 {
			return nil, 0, argErr("source %d contributes %s, below the %s minimum for a non-terminal source",
				i, humanize.IBytes(uint64(contribution)), humanize.IBytes(cmn.MinPartSize))
		}
		totalSize += contribution
		if totalSize > cmn.MaxObjectSize {
			return nil, 0, argErr("composed size exceeds %s", humanize.IBytes(cmn.MaxObjectSize))
		}

		fragments = append(fragments, splitFragments(i, src.Offset, contribution, len(srcs) == 1 || i == len(srcs)-1)...)
		if len(fragments) > cmn.MaxMultipartCount {
			return nil, 0, argErr("compose yields more than %d parts", cmn.MaxMultipartCount)
		}
	}
	return fragments, totalSize, nil
}

// splitFragments cuts one source contribution into part-copy ranges no
// larger than MaxPartSize. The final fragment keeps at least MinPartSize
// unless it closes the whole object.
func splitFragments(srcIndex int, offset, length int64, lastSource bool) []composeFragment {
	var frags []composeFragment
	for length > 0 {
		cut := length
		if cut > cmn.MaxPartSize {
			cut = cmn.MaxPartSize
			if rest := length - cut; rest > 0 && rest < cmn.MinPartSize && !lastSource {
				cut = length - cmn.MinPartSize
			}
		}
		frags = append(frags, composeFragment{
			srcIndex: srcIndex,
			start:    offset,
			end:      offset + cut - 1,
		})
		offset += cut
		length -= cut
	}
	return frags
}

// copySinglePart is the one-fragment fast path: a plain CopyObject with
// the range applied.
func (c *Client) copySinglePart(ctx context.Context, dst CopyDestOptions, srcs []CopySrcOptions, frag composeFragment) (ObjectInfo, error) {
	src := srcs[frag.srcIndex]
	header := http.Header{}
	src.applyHeaders(header)
	dst.applyHeaders(header)
	if src.Offset > 0 || src.Length > 0 {
		header.Set(cmn.HdrAmzCopySourceRange, fmt.Sprintf("bytes=%d-%d", frag.start, frag.end))
	}

	resp, err := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:   dst.Bucket,
		objectName:   dst.Object,
		customHeader: header,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	defer closeResponse(resp)

	var result copyObjectResult
	if err := xmlDecode(resp.Body, &result); err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Key:          dst.Object,
		ETag:         trimETag(result.ETag),
		LastModified: result.LastModified,
		Size:         frag.end - frag.start + 1,
	}, nil
}
