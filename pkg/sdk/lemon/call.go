package lemon

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/betbot/golemon/pkg/sdk/errs"
	"github.com/betbot/golemon/pkg/sdk/rest"
)

// Requester performs one logical request. *rest.Client implements it.
type Requester interface {
	Do(ctx context.Context, req *rest.Request) (*rest.Response, error)
}

// TokenSource supplies the bearer token for each call. *auth.Session
// implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ErrNoResults is returned by single-item lookups when the API answered
// with an empty result list.
var ErrNoResults = errors.New("lemon: no results")

// NewIdempotencyKey returns a random key for orders and withdrawals.
func NewIdempotencyKey() string {
	return uuid.NewString()
}

type endpoint struct {
	requester Requester
	tokens    TokenSource
	resource  rest.Resource
}

func (e endpoint) do(ctx context.Context, method, path string, params url.Values, body any) (*rest.Response, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "bearer token")
	}
	return e.requester.Do(ctx, &rest.Request{
		Resource: e.resource,
		Endpoint: path,
		Method:   method,
		Body:     body,
		Token:    token,
		Params:   params,
	})
}

// get issues a GET and decodes its results into v.
func (e endpoint) get(ctx context.Context, path string, params url.Values, v any) error {
	resp, err := e.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	return decodeResults(resp, v)
}

func decodeResults(resp *rest.Response, v any) error {
	if !resp.HasResults() {
		return missingResults(resp)
	}
	return resp.Decode(v)
}

// missingResults reports an ok-looking envelope without results as an API
// error, reusing whatever code the server sent.
func missingResults(resp *rest.Response) error {
	code, msg := resp.ErrorCode, resp.ErrorMessage
	if code == "" {
		code = "missing_results"
	}
	if msg == "" {
		msg = "response has no results"
	}
	return &errs.APIError{Code: code, Message: msg, Status: resp.HTTPStatus, Mode: resp.Mode, Time: resp.Time}
}
