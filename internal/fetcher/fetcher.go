// Package fetcher performs the plain HTTP requests the downloader needs
// outside the browser: cover images and lecture attachments.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Getter fetches a URL with extra headers. A non-2xx status is not an error;
// callers inspect Response.Status.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

// Client is the default Getter.
type Client struct {
	httpClient *http.Client
	// fileClient has no overall deadline; a slow but live transfer runs
	// until it ends or its context is cancelled.
	fileClient *http.Client
	headers    map[string]string
}

// NewClient returns a client that sends headers with every request.
// timeout bounds a whole Get but only the wait for response headers in
// DownloadFile.
func NewClient(timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		fileClient: &http.Client{Transport: transport},
		headers:    headers,
	}
}

func (c *Client) newRequest(ctx context.Context, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	req, err := c.newRequest(ctx, url, headers)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}

// DownloadFile streams url into destPath. The file is written under a
// temporary name and renamed once complete.
func (c *Client) DownloadFile(ctx context.Context, url, destPath string) error {
	req, err := c.newRequest(ctx, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.fileClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".part-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return os.Rename(tmp.Name(), destPath)
}
