// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudrift/s3core/cmn"
	"github.com/cloudrift/s3core/sigv4"
)

// expirationFormat is the ISO8601 form the POST policy document carries.
const expirationFormat = "2006-01-02T15:04:05.000Z"

type (
	// policyCondition is one ["matchType", "$condition", "value"] entry.
	policyCondition struct {
		matchType string
		condition string
		value     string
	}

	// PostPolicy accumulates the conditions of a browser POST upload.
	// Build it up with the setters, then hand it to PresignedPostPolicy.
	PostPolicy struct {
		expiration time.Time
		conditions []policyCondition

		// contentLengthRange is the ["content-length-range", min, max]
		// condition; active when max > 0.
		contentLengthMin int64
		contentLengthMax int64

		formData map[string]string
	}
)

// NewPostPolicy returns an empty policy.
func NewPostPolicy() *PostPolicy {
	return &PostPolicy{formData: make(map[string]string)}
}

// SetExpires sets the absolute expiration of the policy document.
func (p *PostPolicy) SetExpires(t time.Time) error {
	if t.IsZero() || t.Before(time.Now()) {
		return argErr("policy expiration must lie in the future")
	}
	p.expiration = t.UTC()
	return nil
}

// SetBucket pins the upload to one bucket.
func (p *PostPolicy) SetBucket(bucket string) error {
	if err := cmn.CheckBucketName(bucket); err != nil {
		return argErr("%v", err)
	}
	return p.set(policyCondition{"eq", "$bucket", bucket})
}

// SetKey pins the upload to one object key.
func (p *PostPolicy) SetKey(key string) error {
	if err := cmn.CheckObjectName(key); err != nil {
		return argErr("%v", err)
	}
	return p.set(policyCondition{"eq", "$key", key})
}

// SetKeyStartsWith restricts the object key to a prefix. An empty prefix
// admits any key.
func (p *PostPolicy) SetKeyStartsWith(prefix string) error {
	return p.set(policyCondition{"starts-with", "$key", prefix})
}

// SetContentType pins the Content-Type form field.
func (p *PostPolicy) SetContentType(contentType string) error {
	if contentType == "" {
		return argErr("content type must not be empty")
	}
	return p.set(policyCondition{"eq", "$Content-Type", contentType})
}

// SetContentTypeStartsWith restricts Content-Type to a prefix.
func (p *PostPolicy) SetContentTypeStartsWith(prefix string) error {
	return p.set(policyCondition{"starts-with", "$Content-Type", prefix})
}

// SetContentLengthRange bounds the upload size in bytes.
func (p *PostPolicy) SetContentLengthRange(min, max int64) error {
	if min < 0 || max < min {
		return argErr("content length range %d..%d is invalid", min, max)
	}
	p.contentLengthMin, p.contentLengthMax = min, max
	return nil
}

// SetUserMetadata pins one x-amz-meta-* form field.
func (p *PostPolicy) SetUserMetadata(key, value string) error {
	if key == "" {
		return argErr("metadata key must not be empty")
	}
	return p.set(policyCondition{"eq", "$" + cmn.HdrAmzMetaPrefix + key, value})
}

func (p *PostPolicy) set(cond policyCondition) error {
	p.conditions = append(p.conditions, cond)
	if cond.matchType == "eq" {
		p.formData[strings.TrimPrefix(cond.condition, "$")] = cond.value
	}
	return nil
}

func (p *PostPolicy) bucket() string {
	for _, c := range p.conditions {
		if c.condition == "$bucket" {
			return c.value
		}
	}
	return ""
}

// document renders the policy JSON.
func (p *PostPolicy) document() ([]byte, error) {
	conds := make([]any, 0, len(p.conditions)+1)
	for _, c := range p.conditions {
		conds = append(conds, []string{c.matchType, c.condition, c.value})
	}
	if p.contentLengthMax > 0 {
		conds = append(conds, []any{"content-length-range", p.contentLengthMin, p.contentLengthMax})
	}
	return json.Marshal(map[string]any{
		"expiration": p.expiration.Format(expirationFormat),
		"conditions": conds,
	})
}

func (p *PostPolicy) hasCondition(name string) bool {
	for _, c := range p.conditions {
		if c.condition == name {
			return true
		}
	}
	return false
}

// PresignedPostPolicy signs policy and returns the POST target URL plus
// the form fields a browser upload must carry.
func (c *Client) PresignedPostPolicy(ctx context.Context, policy *PostPolicy) (*url.URL, map[string]string, error) {
	if c.anonymous() {
		return nil, nil, argErr("post policy signing requires credentials")
	}
	if policy.expiration.IsZero() {
		return nil, nil, argErr("policy carries no expiration")
	}
	bucket := policy.bucket()
	if bucket == "" {
		return nil, nil, argErr("policy carries no bucket")
	}
	if !policy.hasCondition("$key") {
		return nil, nil, argErr("policy carries no key condition")
	}

	region, err := c.resolveRegion(ctx, bucket)
	if err != nil {
		return nil, nil, err
	}
	t := time.Now().UTC()
	credential := fmt.Sprintf("%s/%s", c.creds.AccessKey, sigv4.Scope(region, t))

	policy.formData["x-amz-algorithm"] = sigv4.Algorithm
	policy.formData["x-amz-credential"] = credential
	policy.formData["x-amz-date"] = t.Format(sigv4.AmzDateFormat)
	if c.creds.SessionToken != "" {
		policy.formData["x-amz-security-token"] = c.creds.SessionToken
	}
	policy.conditions = append(policy.conditions,
		policyCondition{"eq", "$x-amz-algorithm", sigv4.Algorithm},
		policyCondition{"eq", "$x-amz-credential", credential},
		policyCondition{"eq", "$x-amz-date", t.Format(sigv4.AmzDateFormat)},
	)
	if c.creds.SessionToken != "" {
		policy.conditions = append(policy.conditions,
			policyCondition{"eq", "$x-amz-security-token", c.creds.SessionToken})
	}

	doc, err := policy.document()
	if err != nil {
		return nil, nil, protocolErr("marshal policy: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(doc)
	policy.formData["policy"] = encoded
	policy.formData["x-amz-signature"] = sigv4.PostPolicySignature(encoded, t, c.creds.SecretKey, region)

	target, err := c.makeTargetURL(http.MethodPost, requestMetadata{bucketName: bucket}, region)
	if err != nil {
		return nil, nil, err
	}
	return target, policy.formData, nil
}
