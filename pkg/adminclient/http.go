package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// noRetryPaths never trigger a refresh-and-retry, so a rejected refresh
// cannot recurse into another refresh.
var noRetryPaths = []string{"/login", "/refresh-token", "/refresh", "/logout"}

func shouldRetry(path string) bool {
	for _, p := range noRetryPaths {
		if strings.HasSuffix(path, p) {
			return false
		}
	}
	return true
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type httpClient struct {
	baseURL    string
	tenant     string
	userAgent  string
	httpClient *http.Client
	tokens     *TokenManager
}

func newHTTPClient(baseURL string, hc *http.Client) *httpClient {
	return &httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// call sends a JSON request and decodes the envelope's data into out. An
// authenticated call carries the access token and is retried once after a
// forced refresh when the server answers 401.
func (c *httpClient) call(ctx context.Context, method, path string, payload, out any, authenticated bool) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return &ClientError{Message: "failed to marshal request", Err: err}
		}
		body = b
	}

	var tok string
	if authenticated {
		var err error
		if tok, err = c.tokens.AccessToken(ctx); err != nil {
			return err
		}
	}

	data, err := c.send(ctx, method, path, body, tok)
	if authenticated && IsUnauthorized(err) && shouldRetry(path) {
		if tok, err = c.tokens.ForceRefresh(ctx, tok); err != nil {
			return err
		}
		data, err = c.send(ctx, method, path, body, tok)
	}
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ClientError{Message: "failed to decode response", Err: err}
	}
	return nil
}

func (c *httpClient) send(ctx context.Context, method, path string, body []byte, tok string) (json.RawMessage, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, &ClientError{Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenant != "" {
		req.Header.Set("X-Tenant-ID", c.tenant)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ClientError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
			return nil, nil
		}
		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, &ClientError{Message: "failed to decode response", Err: err}
		}
		return env.Data, nil
	}

	apiErr := &ApiError{StatusCode: resp.StatusCode}
	if json.Unmarshal(respBody, apiErr) != nil || apiErr.ErrorCode == "" {
		apiErr.ErrorCode = http.StatusText(resp.StatusCode)
		apiErr.Message = strings.TrimSpace(string(respBody))
	}
	return nil, apiErr
}
