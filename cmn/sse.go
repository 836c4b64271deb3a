// Package cmn provides constants, validators, and wire-encoding helpers
// shared by the s3core client packages.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package cmn

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

type SSEType int

const (
	SSETypeS3 SSEType = iota + 1
	SSETypeKMS
	SSETypeC
)

func (t SSEType) String() string {
	switch t {
	case SSETypeS3:
		return "SSE-S3"
	case SSETypeKMS:
		return "SSE-KMS"
	case SSETypeC:
		return "SSE-C"
	default:
		return "SSE(?)"
	}
}

// SSE describes a server-side encryption scheme applied to a request.
// A nil SSE means the bucket default applies.
type SSE interface {
	Type() SSEType
	Apply(h http.Header)
	// RequiresTLS reports whether this scheme may only travel over HTTPS.
	RequiresTLS() bool
}

// SSECopier is implemented by schemes that can also decorate the
// copy-source side of a server-side copy (SSE-C only).
type SSECopier interface {
	SSE
	ApplyCopySource(h http.Header)
}

type sseS3 struct{}

// NewSSE returns the SSE-S3 descriptor (AES256 managed by the service).
func NewSSE() SSE { return sseS3{} }

func (sseS3) Type() SSEType     { return SSETypeS3 }
func (sseS3) RequiresTLS() bool { return false }
func (sseS3) Apply(h http.Header) {
	h.Set(HdrSSE, SSEAlgorithmAES256)
}

type sseKMS struct {
	keyID   string
	context string // base64-encoded JSON, may be empty
}

// NewSSEKMS returns an SSE-KMS descriptor. ctx, when non-nil, is the KMS
// encryption context to attach.
func NewSSEKMS(keyID string, ctx map[string]string) (SSE, error) {
	s := sseKMS{keyID: keyID}
	if len(ctx) > 0 {
		b, err := jsoniter.Marshal(ctx)
		if err != nil {
			return nil, fmt.Errorf("marshal KMS encryption context: %w", err)
		}
		s.context = base64.StdEncoding.EncodeToString(b)
	}
	return s, nil
}

func (sseKMS) Type() SSEType     { return SSETypeKMS }
func (sseKMS) RequiresTLS() bool { return false }
func (s sseKMS) Apply(h http.Header) {
	h.Set(HdrSSE, SSEAlgorithmKMS)
	if s.keyID != "" {
		h.Set(HdrSSEKMSKeyID, s.keyID)
	}
	if s.context != "" {
		h.Set(HdrSSEKMSContext, s.context)
	}
}

type sseC struct {
	key [32]byte
}

// NewSSEC returns an SSE-C descriptor for the given 256-bit key.
func NewSSEC(key []byte) (SSE, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("SSE-C key must be 32 bytes, got %d", len(key))
	}
	var s sseC
	copy(s.key[:], key)
	return &s, nil
}

func (*sseC) Type() SSEType     { return SSETypeC }
func (*sseC) RequiresTLS() bool { return true }

func (s *sseC) Apply(h http.Header) {
	h.Set(HdrSSECAlgorithm, SSEAlgorithmAES256)
	h.Set(HdrSSECKey, base64.StdEncoding.EncodeToString(s.key[:]))
	sum := md5.Sum(s.key[:])
	h.Set(HdrSSECKeyMD5, base64.StdEncoding.EncodeToString(sum[:]))
}

func (s *sseC) ApplyCopySource(h http.Header) {
	h.Set(HdrSSECopySourceAlg, SSEAlgorithmAES256)
	h.Set(HdrSSECopySourceKey, base64.StdEncoding.EncodeToString(s.key[:]))
	sum := md5.Sum(s.key[:])
	h.Set(HdrSSECopySourceKeyMD5, base64.StdEncoding.EncodeToString(sum[:]))
}
