// Package postgrest is a small client for the PostgREST interface of a hosted
// Postgres service. It covers the handful of calls the store checker needs.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const restPrefix = "/rest/v1/"

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient builds a client. A zero timeout leaves requests unbounded.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Param modifies the query string of a request.
type Param func(url.Values)

// Eq adds a PostgREST equality filter: col=eq.value
func Eq(col, value string) Param {
	return func(v url.Values) { v.Set(col, "eq."+value) }
}

func Limit(n int) Param {
	return func(v url.Values) { v.Set("limit", strconv.Itoa(n)) }
}

type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) LatencyMS() float64 {
	return r.Latency.Seconds() * 1000
}

// Total returns the row count from Content-Range ("0-0/42"). It is only
// present when the request asked for it, see SelectCount.
func (r *Response) Total() (int64, bool) {
	cr := r.Header.Get("Content-Range")
	i := strings.LastIndexByte(cr, '/')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(cr[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// APIError is the error document PostgREST returns on failures.
type APIError struct {
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// APIError decodes the body as a PostgREST error. It returns nil when the
// body does not look like one.
func (r *Response) APIError() *APIError {
	if len(r.Body) == 0 || !gjson.ValidBytes(r.Body) {
		return nil
	}
	res := gjson.GetManyBytes(r.Body, "code", "message", "details", "hint")
	if !res[0].Exists() && !res[1].Exists() {
		return nil
	}
	return &APIError{
		Code:    res[0].String(),
		Message: res[1].String(),
		Details: res[2].String(),
		Hint:    res[3].String(),
	}
}

// Select reads rows from table.
func (c *Client) Select(ctx context.Context, table string, params ...Param) (*Response, error) {
	return c.do(ctx, http.MethodGet, table, nil, nil, params)
}

// SelectCount is Select with an exact row count in the response, see Total.
func (c *Client) SelectCount(ctx context.Context, table string, params ...Param) (*Response, error) {
	hdr := http.Header{}
	hdr.Set("Prefer", "count=exact")
	return c.do(ctx, http.MethodGet, table, nil, hdr, params)
}

// Insert creates one row. The server is asked not to echo it back, so a
// successful insert answers 201 with an empty body.
func (c *Client) Insert(ctx context.Context, table string, row any) (*Response, error) {
	body, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	hdr := http.Header{}
	hdr.Set("Prefer", "return=minimal")
	return c.do(ctx, http.MethodPost, table, body, hdr, nil)
}

// Delete removes the rows matching params. PostgREST answers 204 on success.
func (c *Client) Delete(ctx context.Context, table string, params ...Param) (*Response, error) {
	return c.do(ctx, http.MethodDelete, table, nil, nil, params)
}

// Endpoint returns the resource URL for table with params applied.
func (c *Client) Endpoint(table string, params ...Param) string {
	u := c.BaseURL + restPrefix + url.PathEscape(table)
	if len(params) == 0 {
		return u
	}
	q := url.Values{}
	for _, p := range params {
		p(q)
	}
	return u + "?" + q.Encode()
}

func (c *Client) do(ctx context.Context, method, table string, body []byte, extra http.Header, params []Param) (*Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(table, params...), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, table, err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       b,
		Latency:    time.Since(start),
	}, nil
}
