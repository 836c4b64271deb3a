// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

// Multipart partitioning constants. These are part of the S3 wire contract
// and must not change.
const (
	MinPartSize       = 5 * 1024 * 1024               // 5 MiB
	MaxPartSize       = 5 * 1024 * 1024 * 1024        // 5 GiB
	MaxObjectSize     = 5 * 1024 * 1024 * 1024 * 1024 // 5 TiB
	MaxMultipartCount = 10000
)

// MaxBucketPolicySize caps the policy JSON accepted by Set/GetBucketPolicy.
const MaxBucketPolicySize = 12 * 1024

// Presigned URL expiry bounds, in seconds.
const (
	MinExpirySeconds = 1
	MaxExpirySeconds = 7 * 24 * 3600
)

const (
	DefaultRegion = "us-east-1"

	// AmazonHost is the canonical endpoint that triggers regional
	// endpoint selection and virtual-hosted addressing.
	AmazonHost = "s3.amazonaws.com"
)

// Standard HTTP headers.
const (
	HdrAuthorization      = "Authorization"
	HdrHost               = "Host"
	HdrUserAgent          = "User-Agent"
	HdrContentType        = "Content-Type"
	HdrContentMD5         = "Content-MD5"
	HdrContentLength      = "Content-Length"
	HdrContentEncoding    = "Content-Encoding"
	HdrAcceptEncoding     = "Accept-Encoding"
	HdrETag               = "ETag"
	HdrLastModified       = "Last-Modified"
	HdrRange              = "Range"
	HdrExpires            = "Expires"
	HdrLocation           = "Location"
	HdrIfMatch            = "If-Match"
	HdrIfNoneMatch        = "If-None-Match"
	HdrIfModifiedSince    = "If-Modified-Since"
	HdrIfUnmodifiedSince  = "If-Unmodified-Since"
	HdrContentDisposition = "Content-Disposition"
	HdrContentLanguage    = "Content-Language"
	HdrCacheControl       = "Cache-Control"
)

// AWS-specific headers.
const (
	HdrAmzDate                 = "x-amz-date"
	HdrAmzContentSHA256        = "x-amz-content-sha256"
	HdrAmzDecodedLength        = "x-amz-decoded-content-length"
	HdrAmzSecurityToken        = "x-amz-security-token"
	HdrAmzRequestID            = "x-amz-request-id"
	HdrAmzID2                  = "x-amz-id-2"
	HdrAmzCopySource           = "x-amz-copy-source"
	HdrAmzCopySourceRange      = "x-amz-copy-source-range"
	HdrAmzMetadataDirective    = "x-amz-metadata-directive"
	HdrAmzBypassGovernance     = "x-amz-bypass-governance-retention"
	HdrAmzObjectLockEnabled    = "x-amz-bucket-object-lock-enabled"
	HdrAmzObjectLockMode       = "x-amz-object-lock-mode"
	HdrAmzObjectLockRetainDate = "x-amz-object-lock-retain-until-date"
	HdrAmzObjectLockLegalHold  = "x-amz-object-lock-legal-hold"
	HdrAmzVersionID            = "x-amz-version-id"
	HdrAmzStorageClass         = "x-amz-storage-class"
	HdrAmzTaggingDirective     = "x-amz-tagging-directive"
	HdrAmzMetaPrefix           = "x-amz-meta-"
	HdrAmzPrefix               = "x-amz-"

	HdrAmzCopySourceIfMatch           = "x-amz-copy-source-if-match"
	HdrAmzCopySourceIfNoneMatch       = "x-amz-copy-source-if-none-match"
	HdrAmzCopySourceIfModifiedSince   = "x-amz-copy-source-if-modified-since"
	HdrAmzCopySourceIfUnmodifiedSince = "x-amz-copy-source-if-unmodified-since"
)

// Server-side encryption headers.
const (
	HdrSSE                   = "x-amz-server-side-encryption"
	HdrSSEKMSKeyID           = "x-amz-server-side-encryption-aws-kms-key-id"
	HdrSSEKMSContext         = "x-amz-server-side-encryption-context"
	HdrSSECAlgorithm         = "x-amz-server-side-encryption-customer-algorithm"
	HdrSSECKey               = "x-amz-server-side-encryption-customer-key"
	HdrSSECKeyMD5            = "x-amz-server-side-encryption-customer-key-md5"
	HdrSSECopySourceAlg      = "x-amz-copy-source-server-side-encryption-customer-algorithm"
	HdrSSECopySourceKey      = "x-amz-copy-source-server-side-encryption-customer-key"
	HdrSSECopySourceKeyMD5   = "x-amz-copy-source-server-side-encryption-customer-key-md5"
	SSEAlgorithmAES256       = "AES256"
	SSEAlgorithmKMS          = "aws:kms"
)

// Payload-hash sentinels (x-amz-content-sha256 values).
const (
	UnsignedPayload  = "UNSIGNED-PAYLOAD"
	StreamingPayload = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD"
	ContentEncAWS    = "aws-chunked"
)

// Query parameters of the S3 REST contract.
const (
	QparamLocation          = "location"
	QparamUploads           = "uploads"
	QparamUploadID          = "uploadId"
	QparamPartNumber        = "partNumber"
	QparamPartNumberMarker  = "part-number-marker"
	QparamUploadIDMarker    = "upload-id-marker"
	QparamKeyMarker         = "key-marker"
	QparamContinuationToken = "continuation-token"
	QparamMarker            = "marker"
	QparamDelimiter         = "delimiter"
	QparamPrefix            = "prefix"
	QparamMaxKeys           = "max-keys"
	QparamMaxUploads        = "max-uploads"
	QparamMaxParts          = "max-parts"
	QparamListType          = "list-type"
	QparamPolicy            = "policy"
	QparamVersioning        = "versioning"
	QparamEncryption        = "encryption"
	QparamLifecycle         = "lifecycle"
	QparamNotification      = "notification"
	QparamObjectLock        = "object-lock"
	QparamRetention         = "retention"
	QparamLegalHold         = "legal-hold"
	QparamSelect            = "select"
	QparamSelectType        = "select-type"
	QparamDelete            = "delete"
	QparamEvents            = "events"
	QparamSuffix            = "suffix"
)

// ContentTypeXML et al.
const (
	ContentTypeXML    = "application/xml"
	ContentTypeJSON   = "application/json"
	ContentTypeOctets = "application/octet-stream"
)

// XMLNamespace carried by all S3 XML documents.
const XMLNamespace = "http://s3.amazonaws.com/doc/2006-03-01/"
