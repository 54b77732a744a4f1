// Package storage handles poster image uploads: an object-storage port, an
// HTTP bucket-store client, and the sequential upload pipeline that turns a
// batch of files into public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 15 * time.Second

// ObjectStore is the port to the external object-storage service.
type ObjectStore interface {
	// Put streams an object into bucket under key.
	Put(ctx context.Context, bucket, key string, r io.Reader, contentType string) error
	// Remove deletes an object. Used for best-effort cleanup of staged
	// uploads when a batch fails partway.
	Remove(ctx context.Context, bucket, key string) error
	// PublicURL returns the public URL an uploaded object is served from.
	PublicURL(bucket, key string) string
}

// BucketClient talks to a Supabase-style storage HTTP API:
//
//	POST   {base}/object/{bucket}/{key}        — upload
//	DELETE {base}/object/{bucket}/{key}        — delete
//	GET    {base}/object/public/{bucket}/{key} — public download
type BucketClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewBucketClient constructs a client with a shared HTTP client.
func NewBucketClient(baseURL, apiKey string) *BucketClient {
	return &BucketClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// Put streams an object into bucket under key.
func (c *BucketClient) Put(ctx context.Context, bucket, key string, r io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(bucket, key), r)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload %s/%s: HTTP %d: %s", bucket, key, resp.StatusCode, body)
	}
	return nil
}

// Remove deletes an object from bucket.
func (c *BucketClient) Remove(ctx context.Context, bucket, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(bucket, key), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delete %s/%s: HTTP %d", bucket, key, resp.StatusCode)
	}
	return nil
}

// PublicURL returns the public URL the object is served from.
func (c *BucketClient) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, url.PathEscape(bucket), url.PathEscape(key))
}

func (c *BucketClient) objectURL(bucket, key string) string {
	return fmt.Sprintf("%s/object/%s/%s", c.baseURL, url.PathEscape(bucket), url.PathEscape(key))
}

func (c *BucketClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
