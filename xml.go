// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"encoding/xml"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func xmlDecode(r io.Reader, v any) error {
	if err := xml.NewDecoder(r).Decode(v); err != nil {
		return &Error{Kind: KindProtocol, Message: "malformed XML response", cause: err}
	}
	return nil
}

func xmlBody(v any) ([]byte, error) {
	b, err := xml.Marshal(v)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "marshal request body", cause: err}
	}
	return b, nil
}
