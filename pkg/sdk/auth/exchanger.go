// Package auth exchanges lemon.markets API credentials for bearer tokens
// and keeps a Session's token fresh.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/betbot/golemon/pkg/sdk/errs"
)

// DefaultTokenURL is the OAuth2 token endpoint.
const DefaultTokenURL = "https://auth.lemon.markets/oauth2/token"

const grantTypeClientCredentials = "client_credentials"

// Credential is the key/secret pair of one trading space.
type Credential struct {
	Key    string
	Secret string
	Space  string // paper or money
}

// String hides the secret.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{Key: %s, Space: %s}", c.Key, c.Space)
}

// Grant is the result of a successful exchange.
type Grant struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// Exchanger trades a credential for a token grant.
type Exchanger interface {
	Exchange(ctx context.Context, cred Credential) (*Grant, error)
}

// HTTPExchanger posts the credential as form data to the token endpoint.
type HTTPExchanger struct {
	client *resty.Client
	url    string
}

// NewHTTPExchanger creates an exchanger for tokenURL (DefaultTokenURL when empty).
func NewHTTPExchanger(tokenURL string, timeout time.Duration) *HTTPExchanger {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPExchanger{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		url: tokenURL,
	}
}

type tokenResponse struct {
	Grant
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchange implements Exchanger.
func (e *HTTPExchanger) Exchange(ctx context.Context, cred Credential) (*Grant, error) {
	if cred.Key == "" || cred.Secret == "" {
		return nil, errs.Invalid("credential", "key and secret are required")
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     cred.Key,
			"client_secret": cred.Secret,
			"grant_type":    grantTypeClientCredentials,
		}).
		Post(e.url)
	if err != nil {
		return nil, errs.NewTransportError("oauth2 token", e.url, 0, err)
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errs.NewTransportError("oauth2 token", e.url, resp.StatusCode(), errors.Wrap(err, "decode token response"))
	}
	if body.Error != "" {
		return nil, &errs.APIError{Code: body.Error, Message: body.ErrorDescription, Status: resp.StatusCode()}
	}
	if !resp.IsSuccess() {
		return nil, errs.NewTransportError("oauth2 token", e.url, resp.StatusCode(), errors.Errorf("http %d", resp.StatusCode()))
	}
	if body.AccessToken == "" || body.ExpiresIn <= 0 {
		return nil, errs.NewTransportError("oauth2 token", e.url, resp.StatusCode(), errors.New("grant lacks access_token or expires_in"))
	}

	grant := body.Grant
	return &grant, nil
}
