// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"encoding/xml"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudrift/s3core/cmn"
)

type (
	// BucketInfo is one entry of ListBuckets.
	BucketInfo struct {
		Name         string    `xml:"Name"`
		CreationDate time.Time `xml:"CreationDate"`
	}

	Owner struct {
		ID          string `xml:"ID"`
		DisplayName string `xml:"DisplayName"`
	}

	// ObjectInfo describes an object, filled from listing entries or from
	// HEAD/GET response headers. Err carries a terminal listing error.
	ObjectInfo struct {
		Key          string    `xml:"Key"`
		ETag         string    `xml:"ETag"`
		Size         int64     `xml:"Size"`
		LastModified time.Time `xml:"LastModified"`
		StorageClass string    `xml:"StorageClass"`
		Owner        Owner     `xml:"Owner"`

		ContentType string      `xml:"-"`
		VersionID   string      `xml:"VersionId"`
		Metadata    http.Header `xml:"-"`
		IsDir       bool        `xml:"-"`

		Err error `xml:"-"`
	}

	// UploadInfo is one entry of ListIncompleteUploads.
	UploadInfo struct {
		Key          string    `xml:"Key"`
		UploadID     string    `xml:"UploadId"`
		Initiated    time.Time `xml:"Initiated"`
		StorageClass string    `xml:"StorageClass"`

		// Size aggregates the already-uploaded part sizes when the
		// listing was asked to resolve them.
		Size int64 `xml:"-"`

		Err error `xml:"-"`
	}

	// PartInfo is one uploaded part, as listed or as returned by
	// UploadPart.
	PartInfo struct {
		PartNumber   int       `xml:"PartNumber"`
		ETag         string    `xml:"ETag"`
		Size         int64     `xml:"Size"`
		LastModified time.Time `xml:"LastModified"`

		Err error `xml:"-"`
	}
)

// list-response wire schemas

type (
	listAllMyBucketsResult struct {
		XMLName xml.Name     `xml:"ListAllMyBucketsResult"`
		Owner   Owner        `xml:"Owner"`
		Buckets []BucketInfo `xml:"Buckets>Bucket"`
	}

	commonPrefix struct {
		Prefix string `xml:"Prefix"`
	}

	listBucketV1Result struct {
		XMLName        xml.Name       `xml:"ListBucketResult"`
		Contents       []ObjectInfo   `xml:"Contents"`
		CommonPrefixes []commonPrefix `xml:"CommonPrefixes"`
		IsTruncated    bool           `xml:"IsTruncated"`
		Marker         string         `xml:"Marker"`
		NextMarker     string         `xml:"NextMarker"`
	}

	listBucketV2Result struct {
		XMLName               xml.Name       `xml:"ListBucketResult"`
		Contents              []ObjectInfo   `xml:"Contents"`
		CommonPrefixes        []commonPrefix `xml:"CommonPrefixes"`
		IsTruncated           bool           `xml:"IsTruncated"`
		NextContinuationToken string         `xml:"NextContinuationToken"`
	}

	listMultipartUploadsResult struct {
		XMLName            xml.Name       `xml:"ListMultipartUploadsResult"`
		Uploads            []UploadInfo   `xml:"Upload"`
		CommonPrefixes     []commonPrefix `xml:"CommonPrefixes"`
		IsTruncated        bool           `xml:"IsTruncated"`
		NextKeyMarker      string         `xml:"NextKeyMarker"`
		NextUploadIDMarker string         `xml:"NextUploadIdMarker"`
	}

	listPartsResult struct {
		XMLName              xml.Name   `xml:"ListPartsResult"`
		Parts                []PartInfo `xml:"Part"`
		IsTruncated          bool       `xml:"IsTruncated"`
		NextPartNumberMarker int        `xml:"NextPartNumberMarker"`
	}
)

// multipart wire schemas

type (
	initiateMultipartUploadResult struct {
		XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
		Bucket   string   `xml:"Bucket"`
		Key      string   `xml:"Key"`
		UploadID string   `xml:"UploadId"`
	}

	completePart struct {
		PartNumber int    `xml:"PartNumber"`
		ETag       string `xml:"ETag"`
	}

	completeMultipartUpload struct {
		XMLName xml.Name       `xml:"http://s3.amazonaws.com/doc/2006-03-01/ CompleteMultipartUpload"`
		Parts   []completePart `xml:"Part"`
	}

	completeMultipartUploadResult struct {
		XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
		Location string   `xml:"Location"`
		Bucket   string   `xml:"Bucket"`
		Key      string   `xml:"Key"`
		ETag     string   `xml:"ETag"`
	}

	copyObjectResult struct {
		ETag         string    `xml:"ETag"`
		LastModified time.Time `xml:"LastModified"`
	}

	createBucketConfiguration struct {
		XMLName  xml.Name `xml:"http://s3.amazonaws.com/doc/2006-03-01/ CreateBucketConfiguration"`
		Location string   `xml:"LocationConstraint"`
	}

	deleteObjectsRequest struct {
		XMLName xml.Name       `xml:"http://s3.amazonaws.com/doc/2006-03-01/ Delete"`
		Quiet   bool           `xml:"Quiet"`
		Objects []deleteObject `xml:"Object"`
	}

	deleteObject struct {
		Key       string `xml:"Key"`
		VersionID string `xml:"VersionId,omitempty"`
	}

	deleteObjectsResult struct {
		XMLName xml.Name      `xml:"DeleteResult"`
		Errors  []deleteError `xml:"Error"`
	}

	deleteError struct {
		Key     string `xml:"Key"`
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	}
)

// objectInfoFromResponse builds ObjectInfo off HEAD/GET response headers.
func objectInfoFromResponse(object string, h http.Header) ObjectInfo {
	size := int64(-1)
	if v := h.Get(cmn.HdrContentLength); v != "" {
		size = parseInt64(v)
	}
	lastMod, _ := time.Parse(http.TimeFormat, h.Get(cmn.HdrLastModified))

	meta := http.Header{}
	for k, v := range h {
		lk := len(cmn.HdrAmzMetaPrefix)
		if len(k) > lk && strings.EqualFold(k[:lk], cmn.HdrAmzMetaPrefix) {
			meta[k] = v
		}
	}
	return ObjectInfo{
		Key:          object,
		ETag:         trimETag(h.Get(cmn.HdrETag)),
		Size:         size,
		LastModified: lastMod,
		ContentType:  h.Get(cmn.HdrContentType),
		VersionID:    h.Get(cmn.HdrAmzVersionID),
		Metadata:     meta,
	}
}

func trimETag(etag string) string {
	etag = strings.TrimPrefix(etag, "\"")
	return strings.TrimSuffix(etag, "\"")
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
