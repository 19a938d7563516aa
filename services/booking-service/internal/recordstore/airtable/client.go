// Package airtable implements recordstore.Store against the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/md-rashed-zaman/bookingassistant/services/booking-service/internal/recordstore"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://api.airtable.com/v0"
	pageSize       = 100
)

type Config struct {
	BaseURL  string
	BaseID   string
	Token    string
	Timeout  time.Duration
	MaxTries uint
}

type Client struct {
	baseURL  string
	baseID   string
	token    string
	http     *http.Client
	maxTries uint
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("airtable: status %d: %s", e.StatusCode, e.Body)
}

func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tries := cfg.MaxTries
	if tries == 0 {
		tries = 4
	}
	return &Client{
		baseURL: base,
		baseID:  cfg.BaseID,
		token:   cfg.Token,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxTries: tries,
	}
}

type listResponse struct {
	Records []wireRecord `json:"records"`
	Offset  string       `json:"offset"`
}

type wireRecord struct {
	ID          string             `json:"id"`
	CreatedTime string             `json:"createdTime"`
	Fields      recordstore.Fields `json:"fields"`
}

func (r wireRecord) toRecord() recordstore.Record {
	created, _ := time.Parse(time.RFC3339, r.CreatedTime)
	fields := r.Fields
	if fields == nil {
		fields = recordstore.Fields{}
	}
	return recordstore.Record{ID: r.ID, Fields: fields, CreatedAt: created}
}

func (c *Client) FetchAll(ctx context.Context, table string, filter recordstore.Filter) ([]recordstore.Record, error) {
	formula := Formula(filter)
	var out []recordstore.Record
	offset := ""
	for {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(pageSize))
		if formula != "" {
			q.Set("filterByFormula", formula)
		}
		if offset != "" {
			q.Set("offset", offset)
		}
		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		for _, r := range page.Records {
			out = append(out, r.toRecord())
		}
		if page.Offset == "" {
			return out, nil
		}
		offset = page.Offset
	}
}

func (c *Client) CreateRecord(ctx context.Context, table string, fields recordstore.Fields) (recordstore.Record, error) {
	body, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return recordstore.Record{}, err
	}
	var created wireRecord
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), body, &created); err != nil {
		return recordstore.Record{}, fmt.Errorf("create %s: %w", table, err)
	}
	return created.toRecord(), nil
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table))
}

// do retries 429 and 5xx responses plus transport errors. POSTs are only retried on 429,
// where Airtable guarantees the write was not applied.
func (c *Client) do(ctx context.Context, method, target string, body []byte, out any) error {
	op := func() (struct{}, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if method != http.MethodGet {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
			if retryable(method, resp.StatusCode) {
				return struct{}{}, statusErr
			}
			return struct{}{}, backoff.Permanent(statusErr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return struct{}{}, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(15*time.Second),
	)
	return err
}

func retryable(method string, status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return method == http.MethodGet && status >= 500
}

// IsNotFound reports a 404 from the API, usually a wrong base or table name.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
