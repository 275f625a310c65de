package rest

import (
	"bytes"
	"net/url"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/betbot/golemon/pkg/sdk/errs"
)

// Request describes one logical API call.
type Request struct {
	Resource Resource
	Endpoint string
	Method   string // defaults to GET
	Body     any    // JSON encoded when non-nil
	Token    string // bearer token, sent as Authorization header
	Params   url.Values
}

// Status values of the response envelope.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response is the normalized lemon.markets envelope. For paginated GET
// requests Results holds the concatenation of every page's results.
type Response struct {
	Time         string          `json:"time"`
	Mode         string          `json:"mode"`
	Status       string          `json:"status"`
	Results      json.RawMessage `json:"results"`
	ErrorCode    string          `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
	Previous     *string         `json:"previous"`
	Next         *string         `json:"next"`
	Total        int             `json:"total"`
	Page         int             `json:"page"`
	Pages        int             `json:"pages"`

	HTTPStatus int    `json:"-"`
	Raw        []byte `json:"-"` // body as received, nil for merged pages
}

// IsError reports whether the envelope carries status "error".
func (r *Response) IsError() bool {
	return r.Status == StatusError
}

// HasResults reports whether the envelope carries a non-null results key.
func (r *Response) HasResults() bool {
	trimmed := bytes.TrimSpace(r.Results)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals Results into v.
func (r *Response) Decode(v any) error {
	if !r.HasResults() {
		return errs.NewTransportError("decode", "", r.HTTPStatus, errors.New("response has no results"))
	}
	if err := json.Unmarshal(r.Results, v); err != nil {
		return errs.NewTransportError("decode", "", r.HTTPStatus, errors.Wrap(err, "decode results"))
	}
	return nil
}

// items returns Results as a list. A missing or null results key is an
// empty page.
func (r *Response) items() ([]json.RawMessage, error) {
	if !r.HasResults() {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(r.Results, &items); err != nil {
		return nil, errors.Wrap(err, "paginated results are not a list")
	}
	return items, nil
}
