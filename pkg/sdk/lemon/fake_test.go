package lemon

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/betbot/golemon/pkg/sdk/auth"
	"github.com/betbot/golemon/pkg/sdk/rest"
)

// fakeRequester records every request and replays canned responses keyed
// by "METHOD endpoint". When several responses are queued for a key they
// are returned in order and the last one repeats.
type fakeRequester struct {
	mu          sync.Mutex
	Calls       map[string]int
	Requests    []*rest.Request
	Responses   map[string][]*rest.Response
	ErrorOnNext map[string]error
}

func newFakeRequester() *fakeRequester {
	return &fakeRequester{
		Calls:       make(map[string]int),
		Responses:   make(map[string][]*rest.Response),
		ErrorOnNext: make(map[string]error),
	}
}

func (f *fakeRequester) on(method, endpoint string, responses ...*rest.Response) *fakeRequester {
	f.Responses[method+" "+endpoint] = responses
	return f
}

func (f *fakeRequester) Do(_ context.Context, req *rest.Request) (*rest.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	key := method + " " + req.Endpoint
	f.Calls[key]++
	f.Requests = append(f.Requests, req)

	if err, ok := f.ErrorOnNext[key]; ok {
		delete(f.ErrorOnNext, key)
		return nil, err
	}
	queue := f.Responses[key]
	if len(queue) == 0 {
		return nil, fmt.Errorf("fake: unexpected request %s", key)
	}
	resp := queue[0]
	if len(queue) > 1 {
		f.Responses[key] = queue[1:]
	}
	return resp, nil
}

func (f *fakeRequester) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

func (f *fakeRequester) last() *rest.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Requests) == 0 {
		return nil
	}
	return f.Requests[len(f.Requests)-1]
}

func okResults(results string) *rest.Response {
	return &rest.Response{Status: rest.StatusOK, Mode: "paper", Results: json.RawMessage(results), HTTPStatus: http.StatusOK}
}

func okEmpty() *rest.Response {
	return &rest.Response{Status: rest.StatusOK, Mode: "paper", HTTPStatus: http.StatusOK}
}

func newTestAccount(f *fakeRequester, mode Mode) *Account {
	a, err := NewAccount(f, auth.StaticToken("tok"), mode)
	if err != nil {
		panic(err)
	}
	return a
}

const placedOrderResult = `{
	"created_at": "2022-04-02T18:10:54.613+00:00",
	"id": "ord_abcdefghijklmnopqrstuvwxyz12345678",
	"status": "inactive",
	"regulatory_information": {
		"costs_entry": 0,
		"costs_entry_pct": "0.00%",
		"costs_running": 0,
		"costs_running_pct": "0.00%",
		"costs_product": 0,
		"costs_product_pct": "0.00%",
		"costs_exit": 0,
		"costs_exit_pct": "0.00%",
		"yield_reduction_year": 0,
		"yield_reduction_year_pct": "0.00%",
		"yield_reduction_year_following": 0,
		"yield_reduction_year_following_pct": "0.00%",
		"yield_reduction_year_exit": 0,
		"yield_reduction_year_exit_pct": "0.00%",
		"estimated_holding_duration_years": "5",
		"estimated_yield_reduction_total": 0,
		"estimated_yield_reduction_total_pct": "0.00%",
		"KIID": "text",
		"legal_disclaimer": "text"
	},
	"isin": "US02079K3059",
	"expires_at": "2022-04-04T21:59:00.000+00:00",
	"side": "buy",
	"quantity": 1,
	"stop_price": null,
	"limit_price": null,
	"venue": "xmun",
	"estimated_price": 25395000,
	"estimated_price_total": 25395000,
	"notes": null,
	"charge": 0,
	"chargeable_at": null,
	"key_creation_id": "apk_keykeykeykeykeykeykeykeykeykeykeyk",
	"idempotency": null
}`

const executedOrderRecord = `{
	"isin": "US0378331005",
	"side": "buy",
	"quantity": 5,
	"venue": "xmun",
	"stop_price": null,
	"limit_price": 1700000,
	"notes": "Test Order",
	"expires_at": "2022-02-02",
	"idempotency": null,
	"status": "executed",
	"id": "ord_aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	"regulatory_information": {
		"KIID": "text",
		"costs_exit": 20000,
		"costs_entry": 20000,
		"costs_product": 0.0,
		"costs_running": 0.0,
		"costs_exit_pct": "1.18%",
		"costs_entry_pct": "1.18%",
		"legal_disclaimer": "text",
		"costs_product_pct": "0.00%",
		"costs_running_pct": "0.00%",
		"yield_reduction_year": 20000,
		"yield_reduction_year_pct": "1.18%",
		"yield_reduction_year_exit": 20000,
		"yield_reduction_year_exit_pct": "1.18%",
		"yield_reduction_year_following": 0,
		"estimated_yield_reduction_total": 40000,
		"estimated_holding_duration_years": "5",
		"yield_reduction_year_following_pct": "0.00%",
		"estimated_yield_reduction_total_pct": "2.35%"
	},
	"estimated_price": 1650000,
	"estimated_price_total": 8000000,
	"created_at": "2022-01-01",
	"charge": 0,
	"chargeable_at": "2022-02-02",
	"isin_title": "APPLE INC.",
	"type": "limit",
	"executed_quantity": 5,
	"executed_price": 1650000,
	"executed_price_total": 8000000,
	"activated_at": "2022-01-01",
	"executed_at": "2022-01-01",
	"rejected_at": null,
	"cancelled_at": null,
	"key_creation_id": "apk_keykeykeykeykeykeykeykeykeykeykeyk",
	"key_activation_id": "apk_keykeykeykeykeykeykeykeykeykeykeyk"
}`

const accountResult = `{
	"created_at": "2021-12-21T10:28:32.188+00:00",
	"account_id": "acc_abcdefghijklmnopqrstuvwxyz12345678",
	"firstname": "Jane",
	"lastname": "Doe",
	"email": "email@example.com",
	"phone": null,
	"address": null,
	"billing_address": null,
	"billing_email": null,
	"billing_name": null,
	"billing_vat": null,
	"mode": "paper",
	"deposit_id": null,
	"client_id": null,
	"account_number": null,
	"iban_brokerage": null,
	"iban_origin": null,
	"bank_name_origin": null,
	"balance": 985900000,
	"cash_to_invest": 957965500,
	"cash_to_withdraw": 957965500,
	"amount_bought_intraday": 0,
	"amount_sold_intraday": 0,
	"amount_open_orders": 27934500,
	"amount_open_withdrawals": 100000,
	"amount_estimate_taxes": 0,
	"approved_at": null,
	"trading_plan": "free",
	"data_plan": "free",
	"tax_allowance": null,
	"tax_allowance_start": null,
	"tax_allowance_end": null
}`

const withdrawalsResult = `[
	{"id": "wtd_qyFjZhh889PJsXFjgK0snMPlNwB6J6ytQa", "amount": 100000, "created_at": "2022-03-27T20:26:48.547+00:00", "date": null, "idempotency": null},
	{"id": "wtd_pyQhdXXDDHsr556LmHJcS4XPR8SDLSw9sb", "amount": 1000000, "created_at": "2021-12-26T23:18:52.708+00:00", "date": "2021-12-26", "idempotency": null},
	{"id": "wtd_pyQhdXXmm0nKfcGNm7zFtNhHdNX4ycKyxc", "amount": 1000000, "created_at": "2021-12-26T23:18:29.631+00:00", "date": "2021-12-26", "idempotency": null},
	{"id": "wtd_pyQgX77666qmmXGC95TmR9XbpbL4LYZczd", "amount": 1500000, "created_at": "2021-12-25T18:48:46.833+00:00", "date": "2021-12-25", "idempotency": null},
	{"id": "wtd_pyQgX77PPG2ZtBlZ5q3zpkLqy4FKKR6Zre", "amount": 1000000, "created_at": "2021-12-25T18:48:11.235+00:00", "date": "2021-12-25", "idempotency": null}
]`

const searchInstrumentResult = `[
	{
		"isin": "IE000YDZG487",
		"wkn": "A3C98L",
		"name": "HSBC NASDAQ GL SEMIC.",
		"title": "HSBC NASDAQ GL SEMIC.UC.ETF",
		"symbol": "HNSC",
		"type": "etf",
		"venues": [{"name": "Börse München - Gettex", "title": "Gettex", "mic": "XMUN", "is_open": true, "tradable": true, "currency": "EUR"}]
	},
	{
		"isin": "IE00BDZVHG35",
		"wkn": "A2JDYM",
		"name": "ISIV-NASDAQ US BIOTE. EOD",
		"title": "ISHSIV-NASDAQ US BIOTECH.U.ETF",
		"symbol": "OM3E",
		"type": "etf",
		"venues": [{"name": "Börse München - Gettex", "title": "Gettex", "mic": "XMUN", "is_open": true, "tradable": true, "currency": "EUR"}]
	}
]`
