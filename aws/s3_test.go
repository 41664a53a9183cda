package aws

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "buckets/abc/.bucket", bucketKey("abc"))
	assert.Equal(t, "buckets/abc/file1", objectKey("abc", "file1"))
}

func TestDownloadURL(t *testing.T) {
	client := s3.New(s3.Options{
		Region:       "auto",
		BaseEndpoint: aws.String("https://example.r2.cloudflarestorage.com"),
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		UsePathStyle: true,
	})

	c := &S3Client{
		C:          client,
		Presign:    s3.NewPresignClient(client),
		Bucket:     aws.String("network"),
		PresignTTL: time.Minute,
	}

	raw, err := c.DownloadURL(context.Background(), "bucket1", "file1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/network/buckets/bucket1/file1"))
	assert.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
}
