// Package fhirclient is the protocol client that test cases use to talk to the server under test.
//
// It covers the interactions the test modules need (create, read and vread, update, delete,
// the three levels of history, and the capability statement) and converts history bundles
// into the pages understood by the history package. Every call takes a context.Context, so a
// call that exceeds the deadline of the test case fails instead of hanging.
package fhirclient

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
	"sync"
	"time"

	"github.com/sprinkler-fhir/sprinkler/framework"
	"github.com/sprinkler-fhir/sprinkler/servicedef"
)

const awaitPollInterval = time.Millisecond * 100

// Client sends requests to one server. A Client is safe for concurrent use, but LastResponse
// is only meaningful if calls are made one at a time.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     framework.Logger
	last       ResponseDetails
	lock       sync.Mutex
}

// ResponseDetails describes the most recent response received by a Client.
type ResponseDetails struct {
	Method          string
	URL             string
	StatusCode      int
	Header          http.Header
	Location        string
	ContentLocation string
	ContentType     string
}

// NewClient creates a Client for the server whose base URL is baseURL. If httpClient is nil,
// http.DefaultClient is used.
func NewClient(baseURL string, httpClient *http.Client, logger framework.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("server URL %q is not an absolute URL", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithLogger returns a Client for the same server that logs to a different logger and keeps
// its own LastResponse.
func (c *Client) WithLogger(logger framework.Logger) *Client {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Client{baseURL: c.baseURL, httpClient: c.httpClient, logger: logger}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// LastResponse returns the details of the last response, successful or not.
func (c *Client) LastResponse() ResponseDetails {
	c.lock.Lock()
	defer c.lock.Unlock()
	ret := c.last
	ret.Header = c.last.Header.Clone()
	return ret
}

// AwaitServer polls the capability statement until the server answers successfully, the
// timeout elapses, or ctx is cancelled.
func (c *Client) AwaitServer(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := c.Conformance(ctx)
		if err == nil {
			c.logger.Printf("Server at %s is responding", c.baseURL)
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("server at %s did not respond within %s, result of last query was: %w", c.baseURL, timeout, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(awaitPollInterval):
		}
	}
}

func (c *Client) resolve(target string) string {
	if IsAbsoluteURL(target) {
		return target
	}
	return c.baseURL + "/" + strings.TrimPrefix(target, "/")
}

// absolute makes a relative identity absolute against the client's base URL.
func (c *Client) absolute(id ResourceIdentity) ResourceIdentity {
	if !id.IsAbsolute() {
		id.Base = c.baseURL
	}
	return id
}

type request struct {
	method  string
	target  string
	query   url.Values
	body    interface{}
	headers map[string]string
}

func (c *Client) do(ctx context.Context, r request) (ResponseDetails, []byte, error) {
	u := c.resolve(r.target)
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return ResponseDetails{}, nil, err
		}
		body = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return ResponseDetails{}, nil, err
	}
	req.Header.Set("Accept", servicedef.ContentTypeFHIRJSON)
	if r.body != nil {
		req.Header.Set("Content-Type", servicedef.ContentTypeFHIRJSON)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	c.logger.Printf("%s %s", r.method, u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ResponseDetails{}, nil, fmt.Errorf("%s %s failed: %w", r.method, u, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResponseDetails{}, nil, fmt.Errorf("error reading response body from %s %s: %w", r.method, u, err)
	}

	details := ResponseDetails{
		Method:          r.method,
		URL:             u,
		StatusCode:      resp.StatusCode,
		Header:          resp.Header,
		Location:        resp.Header.Get("Location"),
		ContentLocation: resp.Header.Get("Content-Location"),
		ContentType:     resp.Header.Get("Content-Type"),
	}
	c.lock.Lock()
	c.last = details
	c.lock.Unlock()
	c.logger.Printf("Got status %d from %s %s", resp.StatusCode, r.method, u)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return details, data, newStatusError(details, data)
	}
	return details, data, nil
}

func newStatusError(details ResponseDetails, body []byte) error {
	e := &StatusError{Code: details.StatusCode, Method: details.Method, URL: details.URL}
	var outcome servicedef.OperationOutcome
	if json.Unmarshal(body, &outcome) == nil && outcome.ResourceType == servicedef.ResourceTypeOperationOutcome {
		e.Outcome = &outcome
	}
	return e
}

func decodeBody(details ResponseDetails, data []byte, out interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s %s returned an empty body", details.Method, details.URL)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed JSON from %s %s: %w", details.Method, details.URL, err)
	}
	return nil
}

var errNoResourceType = errors.New("resource has no resourceType")

// CloseIdleConnections closes any keep-alive connections of the underlying HTTP client.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
