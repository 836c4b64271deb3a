// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"bufio"
	"context"
	"net/http"
	"time"

	"github.com/cloudrift/s3core/cmn"
)

type (
	// NotificationObject identifies the object of one event record.
	NotificationObject struct {
		Key       string `json:"key"`
		Size      int64  `json:"size"`
		ETag      string `json:"eTag"`
		VersionID string `json:"versionId"`
		Sequencer string `json:"sequencer"`
	}

	// NotificationBucket identifies the bucket of one event record.
	NotificationBucket struct {
		Name string `json:"name"`
		ARN  string `json:"arn"`
	}

	// NotificationEvent is one bucket event record.
	NotificationEvent struct {
		EventVersion string    `json:"eventVersion"`
		EventSource  string    `json:"eventSource"`
		AwsRegion    string    `json:"awsRegion"`
		EventTime    time.Time `json:"eventTime"`
		EventName    string    `json:"eventName"`
		S3           struct {
			SchemaVersion string             `json:"s3SchemaVersion"`
			Bucket        NotificationBucket `json:"bucket"`
			Object        NotificationObject `json:"object"`
		} `json:"s3"`
	}

	// NotificationInfo is one line of the notification stream. Err, when
	// set, is terminal.
	NotificationInfo struct {
		Records []NotificationEvent `json:"Records"`

		Err error `json:"-"`
	}
)

// ListenBucketNotification long-polls the bucket's notification stream
// and yields each record batch as it arrives. Empty keep-alive lines are
// skipped. Cancel ctx to stop listening; the channel closes after a
// terminal error or cancellation.
func (c *Client) ListenBucketNotification(ctx context.Context, bucket, prefix, suffix string, events []string) <-chan NotificationInfo {
	out := make(chan NotificationInfo, 1)
	go func() {
		defer close(out)

		q := subresourceQuery(cmn.QparamNotification)
		if prefix != "" {
			q.Set(cmn.QparamPrefix, prefix)
		}
		if suffix != "" {
			q.Set(cmn.QparamSuffix, suffix)
		}
		for _, ev := range events {
			q.Add(cmn.QparamEvents, ev)
		}

		resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{
			bucketName:  bucket,
			queryValues: q,
		})
		if err != nil {
			emitNotification(ctx, out, NotificationInfo{Err: err})
			return
		}
		defer closeResponse(resp)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var info NotificationInfo
			if err := json.Unmarshal(line, &info); err != nil {
				emitNotification(ctx, out, NotificationInfo{Err: protocolErr("malformed notification record: %v", err)})
				return
			}
			if !emitNotification(ctx, out, info) {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			emitNotification(ctx, out, NotificationInfo{Err: transportErr(err)})
		}
	}()
	return out
}

func emitNotification(ctx context.Context, out chan<- NotificationInfo, info NotificationInfo) bool {
	select {
	case out <- info:
		return true
	case <-ctx.Done():
		return false
	}
}
