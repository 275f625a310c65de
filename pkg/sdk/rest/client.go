// Package rest is the transport primitive of the SDK: one logical
// request/response cycle against one of the lemon.markets hosts, with
// cursor pagination flattened for GET listings.
package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/golemon/pkg/logger"
	"github.com/betbot/golemon/pkg/ratelimit"
	"github.com/betbot/golemon/pkg/sdk/errs"
)

// Resource selects the host a request is sent to.
type Resource string

const (
	ResourcePaper Resource = "paper"
	ResourceMoney Resource = "money"
	ResourceData  Resource = "data"
)

// Hosts maps each resource to its base URL.
type Hosts map[Resource]string

// DefaultHosts are the public lemon.markets endpoints.
var DefaultHosts = Hosts{
	ResourcePaper: "https://paper-trading.lemon.markets/v1",
	ResourceMoney: "https://trading.lemon.markets/v1",
	ResourceData:  "https://data.lemon.markets/v1",
}

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "golemon"
	maxErrorBody     = 512
)

// Options configures a Client.
type Options struct {
	Hosts     Hosts
	Timeout   time.Duration      // per HTTP call, applies to every page
	Limiter   *ratelimit.Manager // keyed by Resource, optional
	UserAgent string
	Transport http.RoundTripper // optional, mostly for tests
}

// Client issues requests against the lemon.markets hosts.
// Transport failures are never retried.
type Client struct {
	client  *resty.Client
	hosts   Hosts
	limiter *ratelimit.Manager
}

// NewClient creates a Client. Missing hosts fall back to DefaultHosts.
func NewClient(opts Options) *Client {
	hosts := make(Hosts, len(DefaultHosts))
	for k, v := range DefaultHosts {
		hosts[k] = v
	}
	for k, v := range opts.Hosts {
		if strings.TrimSpace(v) != "" {
			hosts[k] = strings.TrimSuffix(v, "/")
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if opts.Transport != nil {
		rc.SetTransport(opts.Transport)
	}

	return &Client{client: rc, hosts: hosts, limiter: opts.Limiter}
}

// Host returns the base URL configured for resource.
func (c *Client) Host(resource Resource) (string, bool) {
	h, ok := c.hosts[resource]
	return h, ok
}

// Do performs req. For GET requests whose envelope carries a non-null
// "next" cursor, all pages are fetched sequentially and their results are
// concatenated into a single flat array.
//
// A *errs.TransportError is returned when the call cannot complete or the
// body cannot be decoded, an *errs.APIError when the envelope says
// status "error".
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errs.Invalid("request", "nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	host, ok := c.hosts[req.Resource]
	if !ok {
		return nil, errs.Invalid("resource", "unknown resource %q", req.Resource)
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, errs.Invalid("method", "unsupported method %s", method)
	}

	target := joinURL(host, req.Endpoint)
	resp, err := c.roundTrip(ctx, req.Resource, method, target, req.Params, req.Body, req.Token, 1)
	if err != nil {
		return nil, err
	}
	if method != http.MethodGet || resp.Next == nil || *resp.Next == "" {
		return resp, nil
	}
	return c.collectPages(ctx, req, host, target, resp)
}

func (c *Client) collectPages(ctx context.Context, req *Request, host, first string, resp *Response) (*Response, error) {
	items, err := resp.items()
	if err != nil {
		return nil, errs.NewTransportError("paginate", first, resp.HTTPStatus, err)
	}

	visited := map[string]bool{first: true}
	last := resp
	next := *resp.Next
	for page := 2; next != ""; page++ {
		target, err := resolveURL(host, next)
		if err != nil {
			return nil, errs.NewTransportError("paginate", next, 0, err)
		}
		if visited[target] {
			return nil, errs.NewTransportError("paginate", target, 0, errors.New("pagination cursor repeats"))
		}
		visited[target] = true

		// next 已包含查询参数，不再重复携带 req.Params
		p, err := c.roundTrip(ctx, req.Resource, http.MethodGet, target, nil, nil, req.Token, page)
		if err != nil {
			return nil, err
		}
		pageItems, err := p.items()
		if err != nil {
			return nil, errs.NewTransportError("paginate", target, p.HTTPStatus, err)
		}
		items = append(items, pageItems...)
		last = p
		next = ""
		if p.Next != nil {
			next = *p.Next
		}
	}

	merged := *resp
	merged.Results = joinItems(items)
	merged.Next = nil
	merged.Page = last.Page
	merged.Pages = last.Pages
	merged.Raw = nil
	return &merged, nil
}

func (c *Client) roundTrip(ctx context.Context, resource Resource, method, target string, params url.Values, body any, token string, page int) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, string(resource)); err != nil {
			return nil, errs.NewTransportError(method, target, 0, errors.Wrap(err, "rate limit wait"))
		}
	}

	r := c.client.R().SetContext(ctx)
	if token != "" {
		r.SetAuthToken(token)
	}
	if len(params) > 0 {
		r.SetQueryParamsFromValues(params)
	}
	if body != nil {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(body)
	}

	start := time.Now()
	raw, err := r.Execute(method, target)
	entry := logger.WithFields(logrus.Fields{
		"method":  method,
		"url":     target,
		"page":    page,
		"elapsed": time.Since(start).String(),
	})
	if err != nil {
		entry.Debugf("request failed: %v", err)
		return nil, errs.NewTransportError(method, target, 0, err)
	}
	entry.WithField("status", raw.StatusCode()).Debug("request done")

	return decodeResponse(method, target, raw.StatusCode(), raw.IsSuccess(), raw.Body())
}

func decodeResponse(method, target string, status int, success bool, body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		if !success {
			return nil, errs.NewTransportError(method, target, status, errors.Errorf("http non-2xx: %s", truncate(body)))
		}
		return nil, errs.NewTransportError(method, target, status, errors.Wrap(err, "decode response"))
	}
	resp.HTTPStatus = status
	resp.Raw = body

	if resp.IsError() {
		return nil, &errs.APIError{
			Code:    resp.ErrorCode,
			Message: resp.ErrorMessage,
			Status:  status,
			Mode:    resp.Mode,
			Time:    resp.Time,
		}
	}
	if !success {
		return nil, errs.NewTransportError(method, target, status, errors.Errorf("http non-2xx: %s", truncate(body)))
	}
	return &resp, nil
}

func joinURL(host, endpoint string) string {
	if endpoint == "" {
		return host
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return strings.TrimSuffix(host, "/") + "/" + strings.TrimPrefix(endpoint, "/")
}

func resolveURL(host, next string) (string, error) {
	base, err := url.Parse(host)
	if err != nil {
		return "", errors.Wrap(err, "parse host")
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", errors.Wrap(err, "parse next cursor")
	}
	return base.ResolveReference(ref).String(), nil
}

func joinItems(items []json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(it)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
