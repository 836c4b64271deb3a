// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// partSuffix closes the resumable temp-file name
// <destination>.<etag>.part.minio.
const partSuffix = ".part.minio"

// FGetObject downloads bucket/object to path, resuming from an earlier
// partial download when one exists. The object body is appended to
// <path>.<etag>.part.minio and the temp file is renamed into place once
// complete. A destination already holding the full size is a no-op.
func (c *Client) FGetObject(ctx context.Context, bucket, object, path string, opts GetObjectOptions) error {
	info, err := c.StatObject(ctx, bucket, object, opts)
	if err != nil {
		return err
	}

	if st, statErr := os.Stat(path); statErr == nil {
		if st.IsDir() {
			return argErr("destination %s is a directory", path)
		}
		if st.Size() == info.Size {
			return nil
		}
		if st.Size() > info.Size {
			return argErr("destination %s holds %d bytes, remote object has %d",
				path, st.Size(), info.Size)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return transportErr(errors.Wrap(err, "create destination directory"))
		}
	}

	partPath := path + "." + info.ETag + partSuffix
	partFile, err := os.OpenFile(partPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return transportErr(errors.Wrap(err, "open temp file"))
	}
	defer partFile.Close()

	written, err := partFile.Seek(0, io.SeekEnd)
	if err != nil {
		return transportErr(errors.Wrap(err, "seek temp file"))
	}
	if written < info.Size {
		opts.Offset, opts.Length = written, 0
		obj, getErr := c.GetObject(ctx, bucket, object, opts)
		if getErr != nil {
			return getErr
		}
		_, copyErr := io.Copy(partFile, obj)
		obj.Close()
		if copyErr != nil {
			return transportErr(errors.Wrap(copyErr, "write temp file"))
		}
	}
	if err := partFile.Close(); err != nil {
		return transportErr(errors.Wrap(err, "close temp file"))
	}

	if err := os.Rename(partPath, path); err != nil {
		return transportErr(errors.Wrap(err, "rename temp file"))
	}
	return nil
}

// FPutObject uploads the file at path to bucket/object, choosing the
// single or multipart path by file size.
func (c *Client) FPutObject(ctx context.Context, bucket, object, path string, opts PutObjectOptions) (ObjectInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ObjectInfo{}, transportErr(errors.Wrap(err, "open source file"))
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return ObjectInfo{}, transportErr(errors.Wrap(err, "stat source file"))
	}
	if st.IsDir() {
		return ObjectInfo{}, argErr("source %s is a directory", path)
	}
	return c.PutObject(ctx, bucket, object, f, st.Size(), opts)
}
