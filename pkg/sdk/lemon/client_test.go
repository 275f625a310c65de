package lemon

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/golemon/pkg/config"
	"github.com/betbot/golemon/pkg/sdk/auth"
	"github.com/betbot/golemon/pkg/sdk/errs"
)

type stubExchanger struct {
	calls atomic.Int32
}

func (s *stubExchanger) Exchange(context.Context, auth.Credential) (*auth.Grant, error) {
	s.calls.Add(1)
	return &auth.Grant{AccessToken: "tok", ExpiresIn: 3600, TokenType: "bearer"}, nil
}

func testConfig(srvURL string) *config.Config {
	cfg := config.Default()
	cfg.Credentials[config.ModePaper] = config.Credential{Key: "key", Secret: "secret"}
	cfg.HTTP.AuthURL = srvURL + "/oauth2/token"
	cfg.HTTP.PaperURL = srvURL + "/paper"
	cfg.HTTP.MoneyURL = srvURL + "/money"
	cfg.HTTP.DataURL = srvURL + "/data"
	cfg.HTTP.Timeout = "2s"
	return cfg
}

func TestNewClient_EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "key", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":3600,"token_type":"bearer","scope":"paper"}`)
	})
	mux.HandleFunc("/paper/account/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		fmt.Fprintf(w, `{"time":"2022-04-02T18:10:54.613+00:00","status":"ok","mode":"paper","results":%s}`, accountResult)
	})
	mux.HandleFunc("/data/quotes/latest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "false", r.URL.Query().Get("decimals"))
		fmt.Fprint(w, `{"time":"2022-04-02T18:10:54.613+00:00","status":"ok","mode":"paper","results":[
			{"isin":"US88160R1014","b_v":87,"a_v":87,"b":9146000,"a":9152000,"t":"2022-04-01T19:59:59.000+00:00","mic":"XMUN"}
		],"previous":null,"next":null,"total":1,"page":1,"pages":1}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	balance, err := c.Account.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Amount(985900000), balance)

	q, err := c.Market.LatestQuote(context.Background(), "US88160R1014", "")
	require.NoError(t, err)
	assert.Equal(t, Amount(9152000), q.Ask)
}

func TestNewClient_RejectsIncompleteConfig(t *testing.T) {
	cfg := config.Default()
	_, err := NewClient(context.Background(), cfg, WithExchanger(&stubExchanger{}))
	require.Error(t, err)

	_, err = NewClient(context.Background(), nil)
	require.Error(t, err)
}

// Every façade operation must surface the server's error code and message
// unchanged.
func TestClient_SurfacesAPIErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"time":"2022-04-02T18:10:54.613+00:00","mode":"paper","status":"error","error_code":"E1","error_message":"boom"}`)
	}))
	t.Cleanup(srv.Close)

	ex := &stubExchanger{}
	c, err := NewClient(context.Background(), testConfig(srv.URL), WithExchanger(ex))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a, m := c.Account, c.Market
	one := []string{"US0378331005"}

	placed := func() *Order {
		o, err := a.OrderFromResult([]byte(executedOrderRecord))
		require.NoError(t, err)
		o.rec.Status = StatusOpen
		return o
	}

	calls := map[string]func() error{
		"state":         func() error { _, err := a.State(ctx); return err },
		"balance":       func() error { _, err := a.Balance(ctx); return err },
		"cash invest":   func() error { _, err := a.CashToInvest(ctx); return err },
		"cash withdraw": func() error { _, err := a.CashToWithdraw(ctx); return err },
		"open orders":   func() error { _, err := a.AmountOpenOrders(ctx); return err },
		"open withdraw": func() error { _, err := a.AmountOpenWithdrawals(ctx); return err },
		"tax allowance": func() error { _, err := a.TaxAllowance(ctx); return err },
		"withdraw":      func() error { return a.Withdraw(ctx, 100000, "1234", "") },
		"withdrawals":   func() error { _, err := a.Withdrawals(ctx); return err },
		"statements":    func() error { _, err := a.BankStatements(ctx, BankStatementQuery{}); return err },
		"documents":     func() error { _, err := a.Documents(ctx); return err },
		"positions":     func() error { _, err := a.Positions(ctx, ""); return err },
		"orders":        func() error { _, err := a.Orders(ctx, OrderQuery{}); return err },
		"get order":     func() error { _, err := a.GetOrder(ctx, "ord_X"); return err },
		"cancel order":  func() error { return a.CancelOrder(ctx, "ord_X") },
		"place":         func() error { return a.NewOrder(draftParams(t)).Place(ctx) },
		"activate":      func() error { return placed().Activate(ctx, "") },
		"cancel":        func() error { return placed().Cancel(ctx) },
		"reload":        func() error { return placed().Reload(ctx) },
		"search":        func() error { _, err := m.SearchInstrument(ctx, InstrumentQuery{Search: "apple"}); return err },
		"instrument":    func() error { _, err := m.Instrument(ctx, one[0]); return err },
		"venues":        func() error { _, err := m.TradingVenues(ctx, ""); return err },
		"quotes":        func() error { _, err := m.LatestQuotes(ctx, one, ""); return err },
		"quote":         func() error { _, err := m.LatestQuote(ctx, one[0], ""); return err },
		"trades":        func() error { _, err := m.LatestTrades(ctx, one, ""); return err },
		"trade":         func() error { _, err := m.LatestTrade(ctx, one[0], ""); return err },
		"ohlc": func() error {
			_, err := m.OHLC(ctx, OHLCQuery{ISINs: one, Timespan: TimespanMinute})
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			before := hits.Load()
			err := call()
			require.Error(t, err)
			apiErr, ok := errs.AsAPI(err)
			require.True(t, ok, "%T: %v", err, err)
			assert.Equal(t, "E1", apiErr.Code)
			assert.Equal(t, "boom", apiErr.Message)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, before+1, hits.Load(), "exactly one request, no retry")
		})
	}
	assert.Equal(t, int32(1), ex.calls.Load())
}

func TestNewLimiter_RegistersPerResourceBuckets(t *testing.T) {
	assert.Nil(t, newLimiter(config.HTTPConfig{}))

	m := newLimiter(config.HTTPConfig{
		RateLimits: map[string]config.RateLimitConfig{
			"data":  {Burst: 3, PerSecond: 1},
			"paper": {Burst: 1},
		},
	})
	require.NotNil(t, m)
	require.NotNil(t, m.Limiter("data"))
	assert.Equal(t, 3, m.Limiter("data").Remaining())
	assert.Nil(t, m.Limiter("paper"))

	m = newLimiter(config.HTTPConfig{
		RateLimit:  config.RateLimitConfig{Burst: 10, PerSecond: 5},
		RateLimits: map[string]config.RateLimitConfig{"data": {Burst: 2, PerSecond: 1}},
	})
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Limiter("data").Remaining())
	assert.Equal(t, 10, m.Limiter("money").Remaining())
}
