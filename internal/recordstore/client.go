// Package recordstore talks to the external CMS that owns all persistent
// records. The store is reachable only through filtered/paginated queries
// and single-record mutations, authenticated with a service token distinct
// from end-user sessions.
package recordstore

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
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
)

// Config carries connection settings for the record store. Observer, when
// set, receives one callback per store round trip.
type Config struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	Observer func(collection, operation string, err error, duration time.Duration)
}

// Query describes a filtered, optionally paginated collection read. Only
// equality filters are supported by the store.
type Query struct {
	Filters  map[string]string
	Sort     string
	Page     int
	PageSize int
}

// Relation expresses a combined disconnect/connect relation change applied
// in a single update call.
type Relation struct {
	Disconnect []int `json:"disconnect,omitempty"`
	Connect    []int `json:"connect,omitempty"`
}

// Client is an HTTP client for the record store. All calls flow through a
// circuit breaker so a dead upstream fails fast instead of queueing.
type Client struct {
	baseURL  string
	token    string
	httpc    *http.Client
	breaker  *gobreaker.CircuitBreaker
	observer func(collection, operation string, err error, duration time.Duration)
	logger   *zap.Logger
}

// New constructs a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "record-store",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		httpc:    &http.Client{Timeout: timeout},
		breaker:  breaker,
		observer: cfg.Observer,
		logger:   logger,
	}
}

func (c *Client) observe(collection, operation string, err error, started time.Time) {
	if c.observer != nil {
		c.observer(collection, operation, err, time.Since(started))
	}
}

// Find reads records from a collection and decodes the result set into
// dest (a pointer to a slice). An empty result set is not an error.
func (c *Client) Find(ctx context.Context, collection string, q Query, dest interface{}) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, collection)
	values := url.Values{}
	for field, value := range q.Filters {
		values.Set(fmt.Sprintf("filters[%s]", field), value)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		values.Set("pagination[page]", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pagination[pageSize]", strconv.Itoa(q.PageSize))
	}
	if encoded := values.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	started := time.Now()
	err := c.call(ctx, http.MethodGet, endpoint, nil, dest)
	c.observe(collection, "find", err, started)
	return err
}

// Create inserts a record into a collection and decodes the created record
// into dest when non-nil.
func (c *Client) Create(ctx context.Context, collection string, payload, dest interface{}) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, collection)
	started := time.Now()
	err := c.call(ctx, http.MethodPost, endpoint, payload, dest)
	c.observe(collection, "create", err, started)
	return err
}

// Update mutates a single record by id. The payload may carry a Relation
// so a disconnect and a connect land in one store-side mutation.
func (c *Client) Update(ctx context.Context, collection string, id int, payload, dest interface{}) error {
	endpoint := fmt.Sprintf("%s/%s/%d", c.baseURL, collection, id)
	started := time.Now()
	err := c.call(ctx, http.MethodPut, endpoint, payload, dest)
	c.observe(collection, "update", err, started)
	return err
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) call(ctx context.Context, method, endpoint string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(map[string]interface{}{"data": payload})
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode record payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build record store request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, classifyTransportError(err)
		}
		defer resp.Body.Close() //nolint:errcheck

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to read record store response")
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, classifyServerError(resp.StatusCode)
		}
		return &rawResponse{status: resp.StatusCode, body: raw}, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "record store circuit open")
		}
		return err
	}

	resp := result.(*rawResponse)
	if resp.status >= http.StatusBadRequest {
		return classifyClientError(resp.status, method)
	}

	if dest == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "record store returned malformed payload")
	}
	data := env.Data
	if len(data) == 0 {
		// some collections respond without the data envelope
		data = resp.body
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "failed to decode record store payload")
	}
	return nil
}

type rawResponse struct {
	status int
	body   []byte
}

func classifyTransportError(err error) error {
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "record store unreachable")
}

func contextError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return appErrors.Wrap(err, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Status, "record store request timed out")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrUpstreamTimeout.Code, appErrors.ErrUpstreamTimeout.Status, "record store request timed out")
	}
	return nil
}

func classifyServerError(status int) error {
	if status == http.StatusGatewayTimeout {
		return appErrors.Clone(appErrors.ErrUpstreamTimeout, "record store gateway timeout")
	}
	return appErrors.Clone(appErrors.ErrUpstreamUnavailable, fmt.Sprintf("record store returned %d", status))
}

func classifyClientError(status int, method string) error {
	switch status {
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "record not found")
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrUnauthorized, "record store rejected service credentials")
	case http.StatusBadRequest:
		return appErrors.Clone(appErrors.ErrValidation, "record store rejected the request payload")
	}
	if method == http.MethodGet {
		return appErrors.Clone(appErrors.ErrUpstreamUnavailable, fmt.Sprintf("record store returned %d", status))
	}
	return appErrors.Clone(appErrors.ErrPersist, fmt.Sprintf("record store returned %d", status))
}
