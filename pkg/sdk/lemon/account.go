package lemon

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/betbot/golemon/pkg/sdk/errs"
	"github.com/betbot/golemon/pkg/sdk/rest"
)

// Account is the trading façade of one space. It holds no account data:
// every getter re-fetches GET /account/, one round trip per call.
type Account struct {
	endpoint
	mode Mode
}

// NewAccount binds requests for mode to requester, authenticated by tokens.
func NewAccount(requester Requester, tokens TokenSource, mode Mode) (*Account, error) {
	if !mode.Valid() {
		return nil, errs.Invalid("mode", "unknown trading mode %q", mode)
	}
	if requester == nil || tokens == nil {
		return nil, errs.Invalid("account", "requester and token source are required")
	}
	return &Account{
		endpoint: endpoint{requester: requester, tokens: tokens, resource: rest.Resource(mode)},
		mode:     mode,
	}, nil
}

// Mode returns the trading space of the account.
func (a *Account) Mode() Mode { return a.mode }

// State fetches the full account record.
func (a *Account) State(ctx context.Context) (*AccountState, error) {
	var st AccountState
	if err := a.get(ctx, "/account/", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (a *Account) Balance(ctx context.Context) (Amount, error) {
	st, err := a.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.Balance, nil
}

func (a *Account) CashToInvest(ctx context.Context) (Amount, error) {
	st, err := a.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.CashToInvest, nil
}

func (a *Account) CashToWithdraw(ctx context.Context) (Amount, error) {
	st, err := a.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.CashToWithdraw, nil
}

func (a *Account) AmountOpenOrders(ctx context.Context) (Amount, error) {
	st, err := a.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.AmountOpenOrders, nil
}

func (a *Account) AmountOpenWithdrawals(ctx context.Context) (Amount, error) {
	st, err := a.State(ctx)
	if err != nil {
		return 0, err
	}
	return st.AmountOpenWithdrawals, nil
}

// TaxAllowance is nil when the API has none on record.
func (a *Account) TaxAllowance(ctx context.Context) (*Amount, error) {
	st, err := a.State(ctx)
	if err != nil {
		return nil, err
	}
	return st.TaxAllowance, nil
}

type withdrawBody struct {
	Amount      Amount `json:"amount"`
	PIN         string `json:"pin,omitempty"`
	Idempotency string `json:"idempotency,omitempty"`
}

// Withdraw requests a pay-out of amount units. The PIN is mandatory in
// money mode; idempotency may be empty.
func (a *Account) Withdraw(ctx context.Context, amount Amount, pin, idempotency string) error {
	if amount <= 0 {
		return errs.Invalid("amount", "must be positive, got %d", amount)
	}
	if a.mode == ModeMoney && pin == "" {
		return errs.Invalid("pin", "required for money withdrawals")
	}
	_, err := a.do(ctx, http.MethodPost, "/account/withdrawals/", nil, withdrawBody{
		Amount:      amount,
		PIN:         pin,
		Idempotency: idempotency,
	})
	return err
}

// Withdrawals lists every withdrawal across all pages.
func (a *Account) Withdrawals(ctx context.Context) ([]Withdrawal, error) {
	var out []Withdrawal
	if err := a.get(ctx, "/account/withdrawals/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BankStatementQuery filters bank statements; zero fields are omitted.
type BankStatementQuery struct {
	Type    BankStatementType
	From    time.Time
	To      time.Time
	Sorting Sorting
}

func (q BankStatementQuery) values() (url.Values, error) {
	if q.Type != "" && !q.Type.Valid() {
		return nil, errs.Invalid("type", "unknown bank statement type %q", q.Type)
	}
	if q.Sorting != "" && !q.Sorting.Valid() {
		return nil, errs.Invalid("sorting", "must be asc or desc, got %q", q.Sorting)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return nil, errs.Invalid("to", "before from")
	}
	return rest.NewQuery().
		Set("type", string(q.Type)).
		Set("from", formatQueryTime(q.From)).
		Set("to", formatQueryTime(q.To)).
		Set("sorting", string(q.Sorting)).
		Values(), nil
}

// BankStatements lists bank statements matching q.
func (a *Account) BankStatements(ctx context.Context, q BankStatementQuery) ([]BankStatement, error) {
	params, err := q.values()
	if err != nil {
		return nil, err
	}
	var out []BankStatement
	if err := a.get(ctx, "/account/bankstatements/", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Documents lists the account's documents.
func (a *Account) Documents(ctx context.Context) ([]Document, error) {
	var out []Document
	if err := a.get(ctx, "/account/documents/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Positions lists holdings, optionally restricted to one ISIN.
func (a *Account) Positions(ctx context.Context, isin string) ([]Position, error) {
	var out []Position
	if err := a.get(ctx, "/positions/", rest.NewQuery().Set("isin", isin).Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrderQuery filters the order listing; zero fields are omitted.
type OrderQuery struct {
	ISIN          string
	Side          OrderSide
	Status        OrderStatus
	Type          OrderType
	KeyCreationID string
	From          time.Time
	To            time.Time
}

func (q OrderQuery) values() (url.Values, error) {
	if q.Side != "" && !q.Side.Valid() {
		return nil, errs.Invalid("side", "must be buy or sell, got %q", q.Side)
	}
	if q.Status == StatusDraft {
		return nil, errs.Invalid("status", "draft orders exist only locally")
	}
	return rest.NewQuery().
		Set("isin", q.ISIN).
		Set("side", string(q.Side)).
		Set("status", string(q.Status)).
		Set("type", string(q.Type)).
		Set("key_creation_id", q.KeyCreationID).
		Set("from", formatQueryTime(q.From)).
		Set("to", formatQueryTime(q.To)).
		Values(), nil
}

// Orders lists orders matching q, each bound to this account.
func (a *Account) Orders(ctx context.Context, q OrderQuery) ([]*Order, error) {
	params, err := q.values()
	if err != nil {
		return nil, err
	}
	var records []json.RawMessage
	if err := a.get(ctx, "/orders/", params, &records); err != nil {
		return nil, err
	}
	orders := make([]*Order, 0, len(records))
	for _, raw := range records {
		o, err := a.OrderFromResult(raw)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// GetOrder fetches one order by id.
func (a *Account) GetOrder(ctx context.Context, id string) (*Order, error) {
	var raw json.RawMessage
	if err := a.get(ctx, orderPath(id), nil, &raw); err != nil {
		return nil, err
	}
	return a.OrderFromResult(raw)
}

// CancelOrder asks the API to cancel order id.
func (a *Account) CancelOrder(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errs.Invalid("id", "order id is empty")
	}
	_, err := a.do(ctx, http.MethodDelete, orderPath(id), nil, nil)
	return err
}

// NewOrder creates a draft order bound to this account. Nothing is sent
// until Place.
func (a *Account) NewOrder(p OrderParams) *Order {
	return &Order{account: a, rec: p.record()}
}

// OrderFromResult builds an order bound to this account from an API record.
func (a *Account) OrderFromResult(raw []byte) (*Order, error) {
	o, err := OrderFromResult(raw)
	if err != nil {
		return nil, err
	}
	o.account = a
	return o, nil
}

func orderPath(id string) string {
	return "/orders/" + url.PathEscape(id) + "/"
}

// formatQueryTime sends midnight values as plain dates.
func formatQueryTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(LayoutDate)
	}
	return t.Format(time.RFC3339)
}
