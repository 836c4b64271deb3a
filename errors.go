// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudrift/s3core/cmn"
)

// Kind classifies client errors at the level callers branch on.
type Kind int

const (
	KindInternal Kind = iota
	KindArgument      // caller-side precondition violated
	KindAuth
	KindNotFound
	KindConflict
	KindTransport
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "ArgumentError"
	case KindAuth:
		return "AuthError"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindTransport:
		return "TransportError"
	case KindProtocol:
		return "ProtocolError"
	default:
		return "InternalError"
	}
}

// Error is the single error type surfaced by every operation. Code carries
// the server's error code when one was returned; Kind is always set.
type Error struct {
	Kind       Kind
	Code       string `xml:"Code"`
	Message    string `xml:"Message"`
	BucketName string `xml:"BucketName"`
	ObjectName string `xml:"Key"`
	Resource   string `xml:"Resource"`
	RequestID  string `xml:"RequestId"`
	HostID     string `xml:"HostId"`
	Region     string `xml:"Region"`
	StatusCode int    `xml:"-"`

	cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.BucketName != "" {
		fmt.Fprintf(&b, " (bucket %q", e.BucketName)
		if e.ObjectName != "" {
			fmt.Fprintf(&b, ", object %q", e.ObjectName)
		}
		b.WriteString(")")
	}
	if e.RequestID != "" {
		b.WriteString(", request id ")
		b.WriteString(e.RequestID)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var s3err *Error
	return AsError(err, &s3err) && s3err.Kind == kind
}

// AsError is errors.As specialized to *Error.
func AsError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func argErr(format string, a ...any) *Error {
	return &Error{Kind: KindArgument, Message: fmt.Sprintf(format, a...)}
}

func transportErr(cause error) *Error {
	return &Error{Kind: KindTransport, Message: "request transport failure", cause: cause}
}

func protocolErr(format string, a ...any) *Error {
	return &Error{Kind: KindProtocol, Message: fmt.Sprintf(format, a...)}
}

// kindForCode maps a server error code to a Kind.
func kindForCode(code string) Kind {
	switch code {
	case "NoSuchBucket", "NoSuchKey", "NoSuchUpload", "NoSuchVersion",
		"NoSuchLifecycleConfiguration", "NoSuchBucketPolicy",
		"NoSuchObjectLockConfiguration", "ResourceNotFound",
		"ServerSideEncryptionConfigurationNotFoundError":
		return KindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch",
		"ExpiredToken", "InvalidToken":
		return KindAuth
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou", "BucketNotEmpty",
		"OperationAborted", "ResourceConflict":
		return KindConflict
	case "MalformedXML", "PolicyTooLarge", "Redirect", "InvalidURI",
		"MethodNotAllowed":
		return KindProtocol
	case "InvalidArgument", "InvalidBucketName", "InvalidObjectName",
		"InvalidRange", "EntityTooSmall", "EntityTooLarge":
		return KindArgument
	default:
		return KindInternal
	}
}

// httpRespToError converts a non-2xx response into an *Error. An XML body
// is parsed into the error; otherwise the status code is mapped to a
// synthetic code. At most 1 MiB of the body is read.
func httpRespToError(resp *http.Response, bucket, object string) *Error {
	e := &Error{StatusCode: resp.StatusCode, BucketName: bucket, ObjectName: object}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if ct := resp.Header.Get(cmn.HdrContentType); strings.Contains(ct, "application/xml") && len(body) > 0 {
		if xmlErr := xml.Unmarshal(body, e); xmlErr != nil {
			return &Error{
				Kind:       KindProtocol,
				Message:    "malformed error response",
				StatusCode: resp.StatusCode,
				BucketName: bucket,
				ObjectName: object,
				cause:      xmlErr,
			}
		}
	}

	if e.Code == "" {
		switch resp.StatusCode {
		case http.StatusTemporaryRedirect:
			e.Code = "Redirect"
			e.Message = "temporary redirect"
		case http.StatusBadRequest:
			e.Code = "InvalidURI"
			e.Message = "the request URI could not be parsed"
		case http.StatusForbidden:
			e.Code = "AccessDenied"
			e.Message = "access denied"
		case http.StatusNotFound:
			switch {
			case object != "":
				e.Code = "NoSuchKey"
				e.Message = "the specified key does not exist"
			case bucket != "":
				e.Code = "NoSuchBucket"
				e.Message = "the specified bucket does not exist"
			default:
				e.Code = "ResourceNotFound"
				e.Message = "request resource not found"
			}
		case http.StatusMethodNotAllowed, http.StatusNotImplemented:
			e.Code = "MethodNotAllowed"
			e.Message = "the specified method is not allowed"
		case http.StatusConflict:
			if bucket != "" {
				e.Code = "NoSuchBucket"
				e.Message = "the specified bucket does not exist"
			} else {
				e.Code = "ResourceConflict"
				e.Message = "request resource conflicts"
			}
		default:
			e.Code = "InternalError"
			e.Message = http.StatusText(resp.StatusCode)
		}
	}

	e.Kind = kindForCode(e.Code)
	if e.RequestID == "" {
		e.RequestID = resp.Header.Get(cmn.HdrAmzRequestID)
	}
	if e.HostID == "" {
		e.HostID = resp.Header.Get(cmn.HdrAmzID2)
	}
	return e
}
