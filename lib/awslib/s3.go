package awslib

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Client struct {
	cfg    aws.Config
	client *s3.Client
}

func NewS3Client(cfg aws.Config) S3Client {
	return S3Client{
		cfg:    cfg,
		client: s3.NewFromConfig(cfg),
	}
}

// UploadLocalFileToS3 uploads the file at filepath under bucket/prefix and
// returns the resulting S3 URI.
func (s S3Client) UploadLocalFileToS3(ctx context.Context, bucket, prefix, filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}

	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}

	objectKey := fileInfo.Name()
	if prefix != "" {
		objectKey = fmt.Sprintf("%s/%s", prefix, objectKey)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
		Body:   file,
	})

	if err != nil {
		return "", fmt.Errorf("failed to upload file to s3: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", bucket, objectKey), nil
}

// Objects returns a lazy sequence over every object under bucket/prefix,
// fetching list pages on demand. A listing error ends the sequence after
// yielding it; restarting means re-listing from the beginning.
func (s S3Client) Objects(ctx context.Context, bucket, prefix string) iter.Seq2[types.Object, error] {
	return func(yield func(types.Object, error) bool) {
		input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		paginator := s3.NewListObjectsV2Paginator(s.client, input)
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				yield(types.Object{}, fmt.Errorf("failed to list objects in bucket %q: %w", bucket, err))
				return
			}

			for _, object := range page.Contents {
				if !yield(object, nil) {
					return
				}
			}
		}
	}
}

func (s S3Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %q from bucket %q: %w", key, bucket, err)
	}

	return output.Body, nil
}

// SweepBucket deletes every object under bucket/prefix and returns how many
// were deleted.
func (s S3Client) SweepBucket(ctx context.Context, bucket, prefix string) (int, error) {
	var deleted int
	for object, err := range s.Objects(ctx, bucket, prefix) {
		if err != nil {
			return deleted, err
		}

		_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    object.Key,
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete object %q from bucket %q: %w", aws.ToString(object.Key), bucket, err)
		}

		deleted++
	}

	return deleted, nil
}
