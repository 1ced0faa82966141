// Package report talks to Gotenberg to turn rendered HTML into PDF.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// PaperOptions maps to Gotenberg's Chromium page properties. Sizes are in
// inches; zero values keep Gotenberg's defaults.
type PaperOptions struct {
	Width     float64
	Height    float64
	Margin    float64
	Landscape bool
}

// A4 is the paper used for every business document.
var A4 = PaperOptions{Width: 8.27, Height: 11.7, Margin: 0.4}

func (o PaperOptions) fields() map[string]string {
	out := map[string]string{}
	put := func(name string, v float64) {
		if v > 0 {
			out[name] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	put("paperWidth", o.Width)
	put("paperHeight", o.Height)
	for _, side := range []string{"marginTop", "marginBottom", "marginLeft", "marginRight"} {
		put(side, o.Margin)
	}
	if o.Landscape {
		out["landscape"] = "true"
	}
	return out
}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a complete HTML page into a PDF document.
func (c *Client) RenderHTML(ctx context.Context, html []byte, paper PaperOptions) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(html); err != nil {
		return nil, err
	}
	for name, value := range paper.fields() {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("render failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return io.ReadAll(resp.Body)
}
