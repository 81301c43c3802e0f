package client

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
)

// ErrPatientNotFound is returned by FindVisits when the server has no
// visits recorded under the name.
var ErrPatientNotFound = errors.New("patient not found")

// codePatientNotFound marks the server's lookup-miss response. A 404
// without it (wrong base URL, unknown route) surfaces as *APIError.
const codePatientNotFound = "patient_not_found"

// VisitRequest is the payload for AddVisit.
type VisitRequest struct {
	PatientName string  `json:"patient_name"`
	Treatment   string  `json:"treatment"`
	Cost        float64 `json:"cost"`
	DateOfVisit string  `json:"date_of_visit"`
}

// Visit is a stored visit record as returned by the server.
type Visit struct {
	ID          string  `json:"id"`
	PatientKey  string  `json:"patient_key"`
	Treatment   string  `json:"treatment"`
	Cost        float64 `json:"cost"`
	DateOfVisit string  `json:"date_of_visit"`
	Digest      string  `json:"digest"`
}

// AddResult is returned by AddVisit. Status is "created" for a patient's
// first visit and "appended" afterwards.
type AddResult struct {
	Status string `json:"status"`
	Record Visit  `json:"record"`
}

// Overview holds the ledger counts returned by GET /api/v1/ledger.
type Overview struct {
	Patients int `json:"patients"`
	Visits   int `json:"visits"`
}

// APIError is returned for non-2xx responses other than a lookup miss.
type APIError struct {
	StatusCode int
	Code       string // machine-readable code, when the server sent one
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger API error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a hospital ledger server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		c.httpClient = &http.Client{Timeout: d}
		return nil
	}
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddVisit records a visit and returns the stored record with its digest.
func (c *Client) AddVisit(ctx context.Context, req VisitRequest) (*AddResult, error) {
	var out AddResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/visits", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindVisits returns the visits recorded for name, oldest first.
func (c *Client) FindVisits(ctx context.Context, name string) ([]Visit, error) {
	var out struct {
		Visits []Visit `json:"visits"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/visits?"+url.Values{"name": {name}}.Encode(), nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && apiErr.Code == codePatientNotFound {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return out.Visits, nil
}

// Overview returns the number of patients and visits in the ledger.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	if err := c.do(ctx, http.MethodGet, "/api/v1/ledger", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var e struct {
			Code  string `json:"code"`
			Error string `json:"error"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		if json.Unmarshal(data, &e) == nil {
			apiErr.Code = e.Code
			if e.Error != "" {
				apiErr.Message = e.Error
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
