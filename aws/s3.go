// Package aws talks to the S3 compatible object store backing the Network
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/fork-archive-hub/drive-server/pkg/security"
)

type Options struct {
	Bucket          string
	Region          string
	Endpoint        string // Empty for AWS, set for R2 or any other S3 compatible store
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// S3Client stores every Network bucket as a key prefix inside one physical
// bucket
type S3Client struct {
	C          *s3.Client
	Presign    *s3.PresignClient
	Bucket     *string
	PresignTTL time.Duration
}

func NewS3(ctx context.Context, o Options) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKeyID,
			o.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(o.Bucket)

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		so.Region = o.Region
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", o.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	ttl := o.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Client{
		C:          client,
		Presign:    s3.NewPresignClient(client),
		Bucket:     bucket,
		PresignTTL: ttl,
	}, nil
}

func bucketKey(bucketID string) string {
	return path.Join("buckets", bucketID, ".bucket")
}

func objectKey(bucketID, fileID string) string {
	return path.Join("buckets", bucketID, fileID)
}

// CreateBucket registers a new Network bucket owned by bridgeUser and
// returns its id
func (c *S3Client) CreateBucket(ctx context.Context, bridgeUser, name string) (string, error) {
	id, err := security.GenerateToken(12)
	if err != nil {
		return "", err
	}

	_, err = c.C.PutObject(ctx, &s3.PutObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(bucketKey(id)),
		Body:   bytes.NewReader(nil),
		Metadata: map[string]string{
			"owner": bridgeUser,
			"name":  name,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create network bucket, %w", err)
	}

	return id, nil
}

// DownloadURL presigns a GET for a file stored in a Network bucket
func (c *S3Client) DownloadURL(ctx context.Context, bucketID, fileID string) (string, error) {
	req, err := c.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(objectKey(bucketID, fileID)),
	}, s3.WithPresignExpires(c.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign download, %w", err)
	}

	return req.URL, nil
}
