// Package objstore uploads images to S3 (or an S3-compatible store) using
// the bare REST API with Signature V4 request signing.
package objstore

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client stores objects in a single bucket and builds their public URLs.
type Client struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // empty for AWS; set for S3-compatible stores (path-style)
	HTTP      *http.Client

	now func() time.Time
}

// New creates an object store client.
func New(bucket, region, accessKey, secretKey, endpoint string) *Client {
	return &Client{
		Bucket:    bucket,
		Region:    region,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Endpoint:  strings.TrimSuffix(endpoint, "/"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// Put uploads data under key and returns the object's public URL.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("objstore: create request failed: %w", err)
	}
	req.ContentLength = int64(len(data))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.sign(req, data)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("objstore: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("objstore: upload failed (%d): %s", resp.StatusCode, string(body))
	}
	return c.PublicURL(key), nil
}

// PublicURL builds the stable, addressable URL for a stored key.
// AWS form: https://{bucket}.s3.{region}.amazonaws.com/{key}
// Endpoint override uses path-style: {endpoint}/{bucket}/{key}
func (c *Client) PublicURL(key string) string {
	if c.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.Endpoint, c.Bucket, escapePath(key))
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.Bucket, c.Region, escapePath(key))
}

func (c *Client) objectURL(key string) string {
	return c.PublicURL(key)
}

func (c *Client) host() string {
	if c.Endpoint != "" {
		return strings.TrimPrefix(strings.TrimPrefix(c.Endpoint, "https://"), "http://")
	}
	return fmt.Sprintf("%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

// sign adds AWS Signature V4 headers for a PUT with a known payload.
func (c *Client) sign(req *http.Request, payload []byte) {
	t := c.now().UTC()
	amzDate := t.Format("20060102T150405Z")
	dateStamp := t.Format("20060102")
	payloadHash := hexSHA256(payload)

	req.Header.Set("Host", c.host())
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	signedHeaders := "host;x-amz-content-sha256;x-amz-date"
	canonicalHeaders := "host:" + c.host() + "\n" +
		"x-amz-content-sha256:" + payloadHash + "\n" +
		"x-amz-date:" + amzDate + "\n"
	if ct := req.Header.Get("Content-Type"); ct != "" {
		signedHeaders = "content-type;" + signedHeaders
		canonicalHeaders = "content-type:" + ct + "\n" + canonicalHeaders
	}

	canonicalRequest := strings.Join([]string{
		req.Method,
		req.URL.EscapedPath(),
		req.URL.RawQuery,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := dateStamp + "/" + c.Region + "/s3/aws4_request"
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signingKey := hmacSHA256([]byte("AWS4"+c.SecretKey), dateStamp)
	signingKey = hmacSHA256(signingKey, c.Region)
	signingKey = hmacSHA256(signingKey, "s3")
	signingKey = hmacSHA256(signingKey, "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		c.AccessKey, scope, signedHeaders, signature,
	))
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

// escapePath percent-encodes a key the way S3 expects: unreserved characters
// and path separators pass through, everything else is encoded.
func escapePath(path string) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '-', ch == '_', ch == '.', ch == '~', ch == '/':
			b.WriteByte(ch)
		default:
			fmt.Fprintf(&b, "%%%02X", ch)
		}
	}
	return b.String()
}
