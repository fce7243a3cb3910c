package catalog

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gateway is the catalog's view of the storage gateway.
type Gateway interface {
	Upload(ctx context.Context, filename string, image []byte) (string, error)
	Replace(ctx context.Context, filename, oldFilename string, image []byte) (string, error)
	Delete(ctx context.Context, filename string) error
}

// GatewayError is a non-200 answer from the storage gateway.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.StatusCode, e.Body)
}

type imagePayload struct {
	Image       string  `json:"image"`
	Filename    string  `json:"filename"`
	OldFilename *string `json:"old_filename"`
}

// GatewayClient calls the storage gateway over HTTP.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upload stores a new image and returns its presigned URL.
func (g *GatewayClient) Upload(ctx context.Context, filename string, image []byte) (string, error) {
	return g.sendImage(ctx, http.MethodPost, imagePayload{
		Image:    base64.StdEncoding.EncodeToString(image),
		Filename: filename,
	})
}

// Replace stores image under filename and has the gateway remove oldFilename.
func (g *GatewayClient) Replace(ctx context.Context, filename, oldFilename string, image []byte) (string, error) {
	return g.sendImage(ctx, http.MethodPut, imagePayload{
		Image:       base64.StdEncoding.EncodeToString(image),
		Filename:    filename,
		OldFilename: &oldFilename,
	})
}

// Delete removes filename from the gateway's bucket.
func (g *GatewayClient) Delete(ctx context.Context, filename string) error {
	_, err := g.do(ctx, http.MethodDelete, g.baseURL+"/"+url.PathEscape(filename), nil)
	return err
}

func (g *GatewayClient) sendImage(ctx context.Context, method string, payload imagePayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	respBody, err := g.do(ctx, method, g.baseURL+"/", body)
	if err != nil {
		return "", err
	}

	var imageURL string
	if err := json.Unmarshal(respBody, &imageURL); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	return imageURL, nil
}

func (g *GatewayClient) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
