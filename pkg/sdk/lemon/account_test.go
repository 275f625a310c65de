package lemon

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/golemon/pkg/sdk/auth"
	"github.com/betbot/golemon/pkg/sdk/errs"
)

func TestNewAccount_Validates(t *testing.T) {
	_, err := NewAccount(newFakeRequester(), auth.StaticToken("tok"), "demo")
	assert.True(t, errs.IsValidation(err))

	_, err = NewAccount(nil, auth.StaticToken("tok"), ModePaper)
	assert.True(t, errs.IsValidation(err))

	a, err := NewAccount(newFakeRequester(), auth.StaticToken("tok"), ModeMoney)
	require.NoError(t, err)
	assert.Equal(t, ModeMoney, a.Mode())
}

func TestAccount_GettersRefetch(t *testing.T) {
	f := newFakeRequester().on(http.MethodGet, "/account/", okResults(accountResult))
	a := newTestAccount(f, ModePaper)
	ctx := context.Background()

	balance, err := a.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, Amount(985900000), balance)

	invest, err := a.CashToInvest(ctx)
	require.NoError(t, err)
	assert.Equal(t, Amount(957965500), invest)

	withdraw, err := a.CashToWithdraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, Amount(957965500), withdraw)

	open, err := a.AmountOpenOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, Amount(27934500), open)

	pending, err := a.AmountOpenWithdrawals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Amount(100000), pending)

	tax, err := a.TaxAllowance(ctx)
	require.NoError(t, err)
	assert.Nil(t, tax)

	assert.Equal(t, 6, f.Calls["GET /account/"])
}

func TestAccount_State(t *testing.T) {
	f := newFakeRequester().on(http.MethodGet, "/account/", okResults(accountResult))
	st, err := newTestAccount(f, ModePaper).State(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "acc_abcdefghijklmnopqrstuvwxyz12345678", st.AccountID)
	assert.Equal(t, "Jane", st.Firstname)
	assert.Equal(t, "free", st.TradingPlan)
	assert.Equal(t, "paper", string(f.last().Resource))
	assert.Equal(t, "98590.0000", balanceEuro(st.Balance))
}

func balanceEuro(a Amount) string { return a.Euro().StringFixed(4) }

func TestAccount_Withdraw(t *testing.T) {
	t.Run("non-positive amount sends nothing", func(t *testing.T) {
		f := newFakeRequester()
		a := newTestAccount(f, ModePaper)
		for _, amount := range []Amount{-100000, 0} {
			err := a.Withdraw(context.Background(), amount, "1234", "")
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
		}
		assert.Zero(t, f.total())
	})

	t.Run("money requires pin", func(t *testing.T) {
		f := newFakeRequester()
		err := newTestAccount(f, ModeMoney).Withdraw(context.Background(), 100000, "", "")
		assert.True(t, errs.IsValidation(err))
		assert.Zero(t, f.total())
	})

	t.Run("posts body", func(t *testing.T) {
		f := newFakeRequester().on(http.MethodPost, "/account/withdrawals/", okEmpty())
		require.NoError(t, newTestAccount(f, ModeMoney).Withdraw(context.Background(), 100000, "1234", "idem"))
		assert.Equal(t, withdrawBody{Amount: 100000, PIN: "1234", Idempotency: "idem"}, f.last().Body)
	})
}

func TestAccount_Withdrawals(t *testing.T) {
	f := newFakeRequester().on(http.MethodGet, "/account/withdrawals/", okResults(withdrawalsResult))
	list, err := newTestAccount(f, ModePaper).Withdrawals(context.Background())
	require.NoError(t, err)

	require.Len(t, list, 5)
	assert.Equal(t, "wtd_qyFjZhh889PJsXFjgK0snMPlNwB6J6ytQa", list[0].ID)
	assert.Nil(t, list[0].Date)
	assert.Equal(t, Amount(1500000), list[3].Amount)
	assert.True(t, list[1].Date.IsDate())
}

func TestAccount_BankStatementsParams(t *testing.T) {
	f := newFakeRequester().on(http.MethodGet, "/account/bankstatements/", okResults(`[
		{"id":"bst_1","account_id":"acc_1","type":"pay_in","date":"2021-12-21","amount":100000000,"isin":null,"isin_title":null,"created_at":"2021-12-22T00:00:09.928+00:00"}
	]`))
	a := newTestAccount(f, ModePaper)

	list, err := a.BankStatements(context.Background(), BankStatementQuery{
		Type: StatementPayIn,
		From: time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatementPayIn, list[0].Type)

	params := f.last().Params
	assert.Equal(t, "pay_in", params.Get("type"))
	assert.Equal(t, "2021-12-01", params.Get("from"))
	assert.NotContains(t, params, "to")
	assert.NotContains(t, params, "sorting")

	_, err = a.BankStatements(context.Background(), BankStatementQuery{Type: "bonus"})
	assert.True(t, errs.IsValidation(err))
}

func TestAccount_Positions(t *testing.T) {
	f := newFakeRequester().on(http.MethodGet, "/positions/", okResults(`[
		{"isin":"US19260Q1076","isin_title":"COINBASE GLOBAL INC.","quantity":2,"buy_price_avg":2965000,"estimated_price_total":5800000,"estimated_price":2900000}
	]`))
	a := newTestAccount(f, ModePaper)

	list, err := a.Positions(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Quantity)
	assert.Nil(t, f.last().Params)

	_, err = a.Positions(context.Background(), "US19260Q1076")
	require.NoError(t, err)
	assert.Equal(t, "US19260Q1076", f.last().Params.Get("isin"))
}

func TestAccount_OrdersAreBound(t *testing.T) {
	f := newFakeRequester().
		on(http.MethodGet, "/orders/", okResults("["+executedOrderRecord+"]")).
		on(http.MethodGet, "/orders/ord_aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa/", okResults(executedOrderRecord))
	a := newTestAccount(f, ModePaper)

	orders, err := a.Orders(context.Background(), OrderQuery{Side: SideBuy, Status: StatusExecuted})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "buy", f.last().Params.Get("side"))
	assert.Equal(t, "executed", f.last().Params.Get("status"))

	require.NoError(t, orders[0].Reload(context.Background()))
	assert.Equal(t, StatusExecuted, orders[0].Status())

	_, err = a.Orders(context.Background(), OrderQuery{Status: StatusDraft})
	assert.True(t, errs.IsValidation(err))
}

func TestAccount_GetOrderRejectsIncompleteRecord(t *testing.T) {
	f := newFakeRequester().on(http.MethodGet, "/orders/ord_X/", okResults(`{"id":"ord_X","status":"open"}`))
	_, err := newTestAccount(f, ModePaper).GetOrder(context.Background(), "ord_X")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestAccount_CancelOrder(t *testing.T) {
	f := newFakeRequester().on(http.MethodDelete, "/orders/ord_X/", okEmpty())
	a := newTestAccount(f, ModePaper)

	require.NoError(t, a.CancelOrder(context.Background(), "ord_X"))
	assert.True(t, errs.IsValidation(a.CancelOrder(context.Background(), " ")))
	assert.Equal(t, 1, f.total())
}

func TestAccount_MissingResults(t *testing.T) {
	f := newFakeRequester().on(http.MethodGet, "/account/", okEmpty())
	_, err := newTestAccount(f, ModePaper).State(context.Background())
	require.Error(t, err)

	apiErr, ok := errs.AsAPI(err)
	require.True(t, ok)
	assert.Equal(t, "missing_results", apiErr.Code)
}

func TestAccount_TokenFailure(t *testing.T) {
	f := newFakeRequester()
	a, err := NewAccount(f, failingTokens{}, ModePaper)
	require.NoError(t, err)

	_, err = a.Balance(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bearer token")
	assert.Zero(t, f.total())
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", errs.NewTransportError("token", "", 0, context.DeadlineExceeded)
}
