package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// RequestEditorFn is the function signature for the RequestEditor callback function.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// ClientOption allows setting custom parameters during construction.
type ClientOption func(*Client) error

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(doer *http.Client) ClientOption {
	return func(c *Client) error {
		c.http = doer
		return nil
	}
}

// WithRequestEditorFn adds a callback applied to every outgoing request, e.g. for auth headers.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) error {
		c.editors = append(c.editors, fn)
		return nil
	}
}

// Client talks to the clinic backend REST API that owns slots and appointments.
type Client struct {
	server  *url.URL
	http    *http.Client
	editors []RequestEditorFn
	newKey  func() string
}

// NewClient instantiates the clinic API client with sane defaults.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("clinic API base URL is required")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	server, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse clinic API base URL: %w", err)
	}
	c := &Client{
		server: server,
		http:   &http.Client{Timeout: 5 * time.Second},
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// APIError reports a non-success response from the clinic backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clinic API returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return e.StatusCode == http.StatusNotFound && target == ports.ErrNotFound
}

func (c *Client) appointmentPath(id string, suffix ...string) (string, error) {
	pathParam, err := runtime.StyleParamWithLocation("simple", false, "appointmentId", runtime.ParamLocationPath, id)
	if err != nil {
		return "", err
	}
	return strings.Join(append([]string{"appointments", pathParam}, suffix...), "/"), nil
}

func (c *Client) userQuery(userID string) (url.Values, error) {
	queryFrag, err := runtime.StyleParamWithLocation("form", true, "userId", runtime.ParamLocationQuery, userID)
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(queryFrag)
}

// do sends the request and decodes a JSON response into out. Writes carry an
// Idempotency-Key so the backend can drop retried duplicates.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil || c.http == nil {
		return errors.New("clinic API client not configured")
	}
	target, err := c.server.Parse(path)
	if err != nil {
		return fmt.Errorf("build clinic API URL: %w", err)
	}
	if query != nil {
		target.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode clinic API request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", c.newKey())
	}
	for _, edit := range c.editors {
		if err := edit(ctx, req); err != nil {
			return err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call clinic API: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read clinic API response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(payload, resp.Status)}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode clinic API response: %w", err)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func errorMessage(payload []byte, fallback string) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err == nil {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Detail); msg != "" {
			return msg
		}
	}
	return fallback
}
