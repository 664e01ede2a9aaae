package planner

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"planner/core/middleware/auth"
	"planner/core/reconcile"
	"planner/core/recurrence"
	"planner/core/series"
	"planner/feature/planner/models"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// Client talks to a planner server over HTTP. It implements reconcile.Remote.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

var _ reconcile.Remote = (*Client)(nil)

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, timeout: timeout}
}

func (c *Client) CreateSeries(ctx context.Context, req series.CreateRequest) ([]series.Instance, error) {
	body := models.CreateSeriesRequest{
		Rule:            req.Rule,
		Anchor:          recurrence.FormatDate(req.Anchor),
		OwnerID:         req.OwnerID,
		Title:           req.Template.Title,
		Description:     req.Template.Description,
		StartTime:       req.Template.StartTime,
		DurationMinutes: req.Template.DurationMinutes,
	}
	var out models.InstancesResponse
	if err := c.do(ctx, fiber.MethodPost, "/series", body, &out); err != nil {
		return nil, err
	}
	return out.Instances, nil
}

func (c *Client) UpdateInstance(ctx context.Context, req series.UpdateRequest) ([]series.Instance, error) {
	body := models.UpdateInstanceRequest{
		Title:           req.Fields.Title,
		Description:     req.Fields.Description,
		StartTime:       req.Fields.StartTime,
		DurationMinutes: req.Fields.DurationMinutes,
		Completed:       req.Fields.Completed,
		Rule:            req.Rule,
	}
	if req.Fields.Date != nil {
		d := recurrence.FormatDate(*req.Fields.Date)
		body.Date = &d
	}
	path := "/instances/" + url.PathEscape(req.ID) + "?scope=" + url.QueryEscape(string(req.Scope))
	var out models.InstancesResponse
	if err := c.do(ctx, fiber.MethodPatch, path, body, &out); err != nil {
		return nil, err
	}
	return out.Instances, nil
}

func (c *Client) DeleteInstance(ctx context.Context, req series.DeleteRequest) ([]string, error) {
	path := "/instances/" + url.PathEscape(req.ID) + "?scope=" + url.QueryEscape(string(req.Scope))
	var out models.DeleteResponse
	if err := c.do(ctx, fiber.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return out.DeletedIDs, nil
}

func (c *Client) ListInstances(ctx context.Context, p reconcile.Partition) ([]series.Instance, error) {
	kind, id, err := p.Split()
	if err != nil {
		return nil, err
	}
	path := "/instances?owner=" + url.QueryEscape(id)
	if kind == "series" {
		path = "/series/" + url.PathEscape(id) + "/instances"
	}
	var out models.InstancesResponse
	if err := c.do(ctx, fiber.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Instances, nil
}

type response struct {
	code int
	body []byte
	errs []error
}

// do sends one request and decodes a 2xx body into out. Error bodies are
// mapped back to the sentinel their code names.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if c.apiKey != "" {
		a.Set(auth.HeaderName, c.apiKey)
	}
	a.JSONEncoder(json.Marshal).JSONDecoder(json.Unmarshal)
	if in != nil {
		a.JSON(in)
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	a.Timeout(timeout)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("planner client: %w", err)
	}

	done := make(chan response, 1)
	go func() {
		code, body, errs := a.Bytes()
		done <- response{code: code, body: body, errs: errs}
	}()

	var resp response
	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp = <-done:
	}
	if len(resp.errs) > 0 {
		return fmt.Errorf("planner client %s %s: %w", method, path, resp.errs[0])
	}
	if resp.code >= 300 {
		return decodeError(resp.code, resp.body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("planner client: decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Code == "" {
		return fmt.Errorf("planner server returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	if sentinel := errorForCode(e.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, e.Error)
	}
	return fmt.Errorf("planner server returned %d (%s): %s", status, e.Code, e.Error)
}
