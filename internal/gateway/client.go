// Package gateway is the HTTP client for the municipal system of record. It
// owns the wire boundary: every request and response crosses the upper-case /
// lower-case status normalization exactly once.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/pkg/config"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

// RequestObserver receives the timing of every upstream call, labelled by
// operation. The metrics service satisfies it.
type RequestObserver interface {
	ObserveGatewayRequest(operation string, duration time.Duration)
}

// Client talks to the upstream request service.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer RequestObserver
}

// ClientOption configures optional client collaborators.
type ClientOption func(*Client)

// WithObserver attaches per-operation latency observation.
func WithObserver(o RequestObserver) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient constructs a gateway client from config.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ListRequests fetches the full request listing used to hydrate the mirror.
func (c *Client) ListRequests(ctx context.Context) ([]models.Request, error) {
	var payload struct {
		Requests []wireRequest `json:"requests"`
	}
	if err := c.do(ctx, "list", http.MethodGet, "/requests", nil, &payload); err != nil {
		return nil, err
	}
	out := make([]models.Request, 0, len(payload.Requests))
	for _, w := range payload.Requests {
		out = append(out, w.toModel())
	}
	return out, nil
}

// Accept confirms intake of a request with a mandatory comment.
func (c *Client) Accept(ctx context.Context, id, comment, estimate string) (*models.Request, error) {
	body := map[string]string{"comment": comment}
	if estimate != "" {
		body["estimate"] = estimate
	}
	return c.mutate(ctx, id, "accept", body)
}

// Assign hands the request to an assignee, optionally with a schedule block.
func (c *Client) Assign(ctx context.Context, id string, assignment models.Assignment) (*models.Request, error) {
	return c.mutate(ctx, id, "assign", wireAssignment{
		AssigneeID:     assignment.AssigneeID,
		ScheduledDate:  assignment.ScheduledDate,
		ScheduledStart: assignment.ScheduledStart,
		ScheduledEnd:   assignment.ScheduledEnd,
		Comment:        assignment.Comment,
	})
}

// Start marks the request as in execution.
func (c *Client) Start(ctx context.Context, id string) (*models.Request, error) {
	return c.mutate(ctx, id, "start", nil)
}

// Resolve closes the request successfully with resolution text.
func (c *Client) Resolve(ctx context.Context, id, resolution string) (*models.Request, error) {
	return c.mutate(ctx, id, "resolve", map[string]string{"resolution": resolution})
}

// Reject closes the request with a reason code.
func (c *Client) Reject(ctx context.Context, id, reasonCode, description string) (*models.Request, error) {
	body := map[string]string{"reason_code": reasonCode}
	if description != "" {
		body["description"] = description
	}
	return c.mutate(ctx, id, "reject", body)
}

// RevertToAssigned returns an in-execution request to its assigned state.
func (c *Client) RevertToAssigned(ctx context.Context, id, comment string) (*models.Request, error) {
	return c.mutate(ctx, id, "revert", map[string]string{"comment": comment})
}

// GetAvailability fetches the availability snapshot for an (employee, date)
// pair. With searchNext the upstream may answer for a later, non-full date.
func (c *Client) GetAvailability(ctx context.Context, employeeID, date string, searchNext bool) (*models.AvailabilitySnapshot, error) {
	q := url.Values{}
	q.Set("date", date)
	if searchNext {
		q.Set("search_next", "true")
	}
	path := fmt.Sprintf("/employees/%s/availability?%s", url.PathEscape(employeeID), q.Encode())
	var payload wireAvailability
	if err := c.do(ctx, "availability", http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	snapshot := payload.toModel()
	return &snapshot, nil
}

// GetSuggestion fetches the ranked assignment candidates for a request.
func (c *Client) GetSuggestion(ctx context.Context, requestID string) (*models.AssignmentSuggestion, error) {
	var payload wireSuggestion
	path := fmt.Sprintf("/requests/%s/suggestion", url.PathEscape(requestID))
	if err := c.do(ctx, "suggestion", http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	suggestion := payload.toModel()
	return &suggestion, nil
}

// GetHistory fetches the server-owned, append-only history of a request.
func (c *Client) GetHistory(ctx context.Context, requestID string, t models.RequestType) ([]models.HistoryEntry, error) {
	var payload struct {
		History []wireHistoryEntry `json:"history"`
	}
	path := fmt.Sprintf("/requests/%s/history", url.PathEscape(requestID))
	if err := c.do(ctx, "history", http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]models.HistoryEntry, 0, len(payload.History))
	for _, w := range payload.History {
		out = append(out, w.toModel(t))
	}
	return out, nil
}

func (c *Client) mutate(ctx context.Context, id, verb string, body interface{}) (*models.Request, error) {
	path := fmt.Sprintf("/requests/%s/%s", url.PathEscape(id), verb)
	var payload wireRequest
	if err := c.do(ctx, verb, http.MethodPost, path, body, &payload); err != nil {
		return nil, err
	}
	req := payload.toModel()
	return &req, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode gateway payload")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build gateway request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if c.observer != nil {
		c.observer.ObserveGatewayRequest(op, time.Since(started))
	}
	if err != nil {
		c.logger.Warn("gateway call failed", zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "upstream unreachable")
	}
	defer resp.Body.Close()

	c.logger.Debug("gateway call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(started)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrGatewayUnavailable.Code, appErrors.ErrGatewayUnavailable.Status, "decode gateway response")
	}
	return nil
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch resp.StatusCode {
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "request not found upstream")
	case http.StatusConflict:
		return appErrors.Clone(appErrors.ErrConflict, "upstream rejected the transition")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("upstream rejected the payload: %s", string(snippet)))
	default:
		return appErrors.Clone(appErrors.ErrGatewayUnavailable, fmt.Sprintf("upstream returned %d", resp.StatusCode))
	}
}
