// Package remote reads and writes tagged data containers stored in S3.
//
// Headers are fetched with a ranged GET of the first 32 bytes, so inspecting
// a container never downloads its payload.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/eunmann/tdc/internal/logctx"
	"github.com/eunmann/tdc/pkg/container"
	"github.com/eunmann/tdc/pkg/header"
)

// API is the subset of the S3 client used here.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client provides container operations against S3.
type Client struct {
	api API
}

// NewClient creates a new client using default AWS configuration.
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewClientWithConfig(cfg), nil
}

// NewClientWithConfig creates a new client with a custom AWS config.
func NewClientWithConfig(cfg aws.Config) *Client {
	return &Client{api: s3.NewFromConfig(cfg)}
}

// NewClientWithAPI wraps an existing S3 API implementation.
func NewClientWithAPI(api API) *Client {
	return &Client{api: api}
}

// FetchHeader reads and validates the header of s3://bucket/key.
func (c *Client) FetchHeader(ctx context.Context, bucket, key string) (header.Header, error) {
	body, err := c.getRange(ctx, bucket, key, 0, header.Size)
	if err != nil {
		return header.Header{}, err
	}
	defer body.Close()

	buf, err := io.ReadAll(io.LimitReader(body, header.Size))
	if err != nil {
		return header.Header{}, fmt.Errorf("read header from s3://%s/%s: %w", bucket, key, err)
	}

	ctx = logctx.WithSource(ctx, "s3://"+bucket+"/"+key)
	h, err := header.DecodeWarn(buf, container.LogWarnings(ctx))
	if err != nil {
		return header.Header{}, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
	}
	return h, nil
}

// FetchPayload reads the payload described by h. Memory grows with the bytes
// actually received, so a header declaring more than the object holds fails
// with container.ErrTruncated without reserving DataSize up front.
func (c *Client) FetchPayload(ctx context.Context, bucket, key string, h header.Header) ([]byte, error) {
	resp, err := c.getObjectRange(ctx, bucket, key, int64(h.DataOffset), int64(h.DataSize))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.ContentLength != nil && *resp.ContentLength < int64(h.DataSize) {
		return nil, fmt.Errorf("s3://%s/%s: %w: payload %d of %d bytes",
			bucket, key, container.ErrTruncated, *resp.ContentLength, h.DataSize)
	}

	var payload bytes.Buffer
	if n, err := io.CopyN(&payload, resp.Body, int64(h.DataSize)); err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w: payload %d of %d bytes",
			bucket, key, container.ErrTruncated, n, h.DataSize)
	}
	return payload.Bytes(), nil
}

// Fetch reads header and payload of s3://bucket/key.
func (c *Client) Fetch(ctx context.Context, bucket, key string) (header.Header, []byte, error) {
	h, err := c.FetchHeader(ctx, bucket, key)
	if err != nil {
		return header.Header{}, nil, err
	}
	payload, err := c.FetchPayload(ctx, bucket, key, h)
	if err != nil {
		return header.Header{}, nil, err
	}
	return h, payload, nil
}

// PutContainer encodes and uploads a container to s3://bucket/key.
func (c *Client) PutContainer(ctx context.Context, bucket, key string, h header.Header, payload []byte) error {
	data, err := container.Encode(h, payload)
	if err != nil {
		return err
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("put object s3://%s/%s: %w", bucket, key, err)
	}

	log := logctx.FromContext(ctx)
	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("container uploaded")
	return nil
}

func (c *Client) getRange(ctx context.Context, bucket, key string, off, n int64) (io.ReadCloser, error) {
	resp, err := c.getObjectRange(ctx, bucket, key, off, n)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) getObjectRange(ctx context.Context, bucket, key string, off, n int64) (*s3.GetObjectOutput, error) {
	resp, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+n-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return resp, nil
}
