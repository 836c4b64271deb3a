// Package s3core is a client for Amazon S3 compatible object storage:
// bucket and object CRUD, multipart and compose orchestration, listings,
// presigned URLs, POST policies, select streams, and bucket notifications.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package s3core

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cloudrift/s3core/cmn"
)

///////////////////
// bucket policy //
///////////////////

// SetBucketPolicy uploads a bucket policy JSON document. Policies above
// 12 KiB are rejected before any request is made.
func (c *Client) SetBucketPolicy(ctx context.Context, bucket, policy string) error {
	if len(policy) > cmn.MaxBucketPolicySize {
		return &Error{
			Kind: KindProtocol,
			Code: "PolicyTooLarge",
			Message: "bucket policy exceeds " +
				humanize.IBytes(cmn.MaxBucketPolicySize),
			BucketName: bucket,
		}
	}
	resp, err := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamPolicy),
		content:     []byte(policy),
		contentMD5:  true,
	})
	if err != nil {
		return err
	}
	closeResponse(resp)
	return nil
}

// GetBucketPolicy returns the policy JSON, or "" when the bucket has
// none.
func (c *Client) GetBucketPolicy(ctx context.Context, bucket string) (string, error) {
	resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamPolicy),
	})
	if err != nil {
		var s3err *Error
		if AsError(err, &s3err) && s3err.Code == "NoSuchBucketPolicy" {
			return "", nil
		}
		return "", err
	}
	defer closeResponse(resp)

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, cmn.MaxBucketPolicySize+1))
	if readErr != nil {
		return "", transportErr(readErr)
	}
	if len(body) > cmn.MaxBucketPolicySize {
		return "", protocolErr("bucket policy exceeds %s", humanize.IBytes(cmn.MaxBucketPolicySize))
	}
	return string(body), nil
}

// DeleteBucketPolicy removes the bucket policy; an absent policy is not
// an error.
func (c *Client) DeleteBucketPolicy(ctx context.Context, bucket string) error {
	return c.deleteSubresource(ctx, bucket, cmn.QparamPolicy)
}

////////////////
// versioning //
////////////////

type versioningConfiguration struct {
	XMLName   xml.Name `xml:"http://s3.amazonaws.com/doc/2006-03-01/ VersioningConfiguration"`
	Status    string   `xml:"Status,omitempty"`
	MFADelete string   `xml:"MfaDelete,omitempty"`
}

// VersioningEnabled and friends are the wire values of the versioning
// Status field.
const (
	VersioningEnabled   = "Enabled"
	VersioningSuspended = "Suspended"
)

// SetBucketVersioning sets the versioning status to one of the
// Versioning* values.
func (c *Client) SetBucketVersioning(ctx context.Context, bucket, status string) error {
	body, err := xmlBody(versioningConfiguration{Status: status})
	if err != nil {
		return err
	}
	resp, execErr := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamVersioning),
		content:     body,
		contentMD5:  true,
	})
	if execErr != nil {
		return execErr
	}
	closeResponse(resp)
	return nil
}

// GetBucketVersioning returns the versioning status; "" means versioning
// was never configured.
func (c *Client) GetBucketVersioning(ctx context.Context, bucket string) (string, error) {
	var config versioningConfiguration
	if err := c.getSubresourceXML(ctx, bucket, cmn.QparamVersioning, &config); err != nil {
		return "", err
	}
	return config.Status, nil
}

///////////////
// lifecycle //
///////////////

// Lifecycle configuration as a typed document: each rule carries an ID,
// status, prefix filter, and expiration. The client marshals it on write
// and decodes it on read; other rule elements are not represented, and
// nothing is validated beyond well-formed XML.
type LifecycleConfiguration struct {
	XMLName xml.Name        `xml:"http://s3.amazonaws.com/doc/2006-03-01/ LifecycleConfiguration"`
	Rules   []LifecycleRule `xml:"Rule"`
}

type LifecycleRule struct {
	ID         string               `xml:"ID,omitempty"`
	Status     string               `xml:"Status"`
	Prefix     string               `xml:"Filter>Prefix,omitempty"`
	Expiration *LifecycleExpiration `xml:"Expiration,omitempty"`
}

type LifecycleExpiration struct {
	Days int        `xml:"Days,omitempty"`
	Date *time.Time `xml:"Date,omitempty"`
}

func (c *Client) SetBucketLifecycle(ctx context.Context, bucket string, config LifecycleConfiguration) error {
	body, err := xmlBody(config)
	if err != nil {
		return err
	}
	resp, execErr := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamLifecycle),
		content:     body,
		contentMD5:  true,
	})
	if execErr != nil {
		return execErr
	}
	closeResponse(resp)
	return nil
}

// GetBucketLifecycle returns the lifecycle configuration; an unconfigured
// bucket yields an empty configuration and no error.
func (c *Client) GetBucketLifecycle(ctx context.Context, bucket string) (LifecycleConfiguration, error) {
	var config LifecycleConfiguration
	err := c.getSubresourceXML(ctx, bucket, cmn.QparamLifecycle, &config)
	var s3err *Error
	if AsError(err, &s3err) && s3err.Code == "NoSuchLifecycleConfiguration" {
		return LifecycleConfiguration{}, nil
	}
	return config, err
}

func (c *Client) DeleteBucketLifecycle(ctx context.Context, bucket string) error {
	return c.deleteSubresource(ctx, bucket, cmn.QparamLifecycle)
}

////////////////
// encryption //
////////////////

type ServerSideEncryptionConfiguration struct {
	XMLName xml.Name               `xml:"http://s3.amazonaws.com/doc/2006-03-01/ ServerSideEncryptionConfiguration"`
	Rules   []SSEConfigurationRule `xml:"Rule"`
}

type SSEConfigurationRule struct {
	Algorithm    string `xml:"ApplyServerSideEncryptionByDefault>SSEAlgorithm"`
	KMSMasterKey string `xml:"ApplyServerSideEncryptionByDefault>KMSMasterKeyID,omitempty"`
}

func (c *Client) SetBucketEncryption(ctx context.Context, bucket string, config ServerSideEncryptionConfiguration) error {
	body, err := xmlBody(config)
	if err != nil {
		return err
	}
	resp, execErr := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamEncryption),
		content:     body,
		contentMD5:  true,
	})
	if execErr != nil {
		return execErr
	}
	closeResponse(resp)
	return nil
}

func (c *Client) GetBucketEncryption(ctx context.Context, bucket string) (ServerSideEncryptionConfiguration, error) {
	var config ServerSideEncryptionConfiguration
	err := c.getSubresourceXML(ctx, bucket, cmn.QparamEncryption, &config)
	return config, err
}

// DeleteBucketEncryption removes the default-encryption configuration;
// deleting an absent configuration succeeds.
func (c *Client) DeleteBucketEncryption(ctx context.Context, bucket string) error {
	return c.deleteSubresource(ctx, bucket, cmn.QparamEncryption)
}

//////////////////
// notification //
//////////////////

type NotificationConfiguration struct {
	XMLName xml.Name            `xml:"http://s3.amazonaws.com/doc/2006-03-01/ NotificationConfiguration"`
	Queues  []NotificationQueue `xml:"QueueConfiguration,omitempty"`
	Topics  []NotificationTopic `xml:"TopicConfiguration,omitempty"`
}

type NotificationQueue struct {
	ID     string   `xml:"Id,omitempty"`
	Queue  string   `xml:"Queue"`
	Events []string `xml:"Event"`
}

type NotificationTopic struct {
	ID     string   `xml:"Id,omitempty"`
	Topic  string   `xml:"Topic"`
	Events []string `xml:"Event"`
}

func (c *Client) SetBucketNotification(ctx context.Context, bucket string, config NotificationConfiguration) error {
	body, err := xmlBody(config)
	if err != nil {
		return err
	}
	resp, execErr := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamNotification),
		content:     body,
		contentMD5:  true,
	})
	if execErr != nil {
		return execErr
	}
	closeResponse(resp)
	return nil
}

func (c *Client) GetBucketNotification(ctx context.Context, bucket string) (NotificationConfiguration, error) {
	var config NotificationConfiguration
	err := c.getSubresourceXML(ctx, bucket, cmn.QparamNotification, &config)
	return config, err
}

// RemoveAllBucketNotification clears the configuration by setting it
// empty; there is no DELETE verb for this subresource.
func (c *Client) RemoveAllBucketNotification(ctx context.Context, bucket string) error {
	return c.SetBucketNotification(ctx, bucket, NotificationConfiguration{})
}

/////////////////
// object lock //
/////////////////

type ObjectLockConfiguration struct {
	XMLName xml.Name `xml:"http://s3.amazonaws.com/doc/2006-03-01/ ObjectLockConfiguration"`
	Enabled string   `xml:"ObjectLockEnabled,omitempty"`
	Mode    string   `xml:"Rule>DefaultRetention>Mode,omitempty"`
	Days    int      `xml:"Rule>DefaultRetention>Days,omitempty"`
	Years   int      `xml:"Rule>DefaultRetention>Years,omitempty"`
}

func (c *Client) SetObjectLockConfig(ctx context.Context, bucket string, config ObjectLockConfiguration) error {
	config.Enabled = "Enabled"
	body, err := xmlBody(config)
	if err != nil {
		return err
	}
	resp, execErr := c.executeMethod(ctx, http.MethodPut, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(cmn.QparamObjectLock),
		content:     body,
		contentMD5:  true,
	})
	if execErr != nil {
		return execErr
	}
	closeResponse(resp)
	return nil
}

func (c *Client) GetObjectLockConfig(ctx context.Context, bucket string) (ObjectLockConfiguration, error) {
	var config ObjectLockConfiguration
	err := c.getSubresourceXML(ctx, bucket, cmn.QparamObjectLock, &config)
	return config, err
}

/////////////
// helpers //
/////////////

func (c *Client) getSubresourceXML(ctx context.Context, bucket, subresource string, v any) error {
	resp, err := c.executeMethod(ctx, http.MethodGet, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(subresource),
	})
	if err != nil {
		return err
	}
	defer closeResponse(resp)
	return xmlDecode(resp.Body, v)
}

// deleteSubresource issues DELETE ?<subresource>; NotFound is absorbed so
// deleting an absent configuration succeeds.
func (c *Client) deleteSubresource(ctx context.Context, bucket, subresource string) error {
	resp, err := c.executeMethod(ctx, http.MethodDelete, requestMetadata{
		bucketName:  bucket,
		queryValues: subresourceQuery(subresource),
	})
	if err != nil {
		var s3err *Error
		if AsError(err, &s3err) && (s3err.Kind == KindNotFound || s3err.StatusCode == http.StatusNotFound) &&
			s3err.Code != "NoSuchBucket" {
			return nil
		}
		return err
	}
	closeResponse(resp)
	return nil
}
