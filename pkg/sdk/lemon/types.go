package lemon

import "strings"

// Mode is the trading space an account operates in.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeMoney Mode = "money"
)

func (m Mode) Valid() bool { return m == ModePaper || m == ModeMoney }

// OrderSide is buy or sell.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

func (s OrderSide) Valid() bool { return s == SideBuy || s == SideSell }

// OrderStatus is the lifecycle state of an order. StatusDraft is local
// only and never reported by the API.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "draft"
	StatusInactive  OrderStatus = "inactive"
	StatusActivated OrderStatus = "activated"
	StatusOpen      OrderStatus = "open"
	StatusCanceling OrderStatus = "canceling"
	StatusCanceled  OrderStatus = "canceled"
	StatusExecuted  OrderStatus = "executed"
	StatusExpired   OrderStatus = "expired"
)

// Cancelable reports whether cancel may be sent to the API in this status.
func (s OrderStatus) Cancelable() bool {
	switch s {
	case StatusInactive, StatusActivated, StatusOpen:
		return true
	}
	return false
}

// Final reports whether no further transition can occur.
func (s OrderStatus) Final() bool {
	switch s {
	case StatusCanceled, StatusExecuted, StatusExpired:
		return true
	}
	return false
}

// OrderType is derived by the API from the stop and limit prices.
type OrderType string

const (
	TypeMarket    OrderType = "market"
	TypeStop      OrderType = "stop"
	TypeLimit     OrderType = "limit"
	TypeStopLimit OrderType = "stop_limit"
)

// Venue is a Market Identifier Code. The API accepts MICs in any case.
type Venue string

const (
	VenueGettex Venue = "xmun"
	VenueAllday Venue = "allday"
)

// Equal compares venues case-insensitively.
func (v Venue) Equal(other Venue) bool {
	return strings.EqualFold(string(v), string(other))
}

// InstrumentType filters instrument searches.
type InstrumentType string

const (
	InstrumentStock   InstrumentType = "stock"
	InstrumentBond    InstrumentType = "bond"
	InstrumentFund    InstrumentType = "fund"
	InstrumentETF     InstrumentType = "etf"
	InstrumentWarrant InstrumentType = "warrant"
)

func (t InstrumentType) Valid() bool {
	switch t {
	case InstrumentStock, InstrumentBond, InstrumentFund, InstrumentETF, InstrumentWarrant:
		return true
	}
	return false
}

// Sorting orders time series results.
type Sorting string

const (
	SortAsc  Sorting = "asc"
	SortDesc Sorting = "desc"
)

func (s Sorting) Valid() bool { return s == SortAsc || s == SortDesc }

// Timespan is the width of one OHLC bar.
type Timespan string

const (
	TimespanMinute Timespan = "m"
	TimespanHour   Timespan = "h"
	TimespanDay    Timespan = "d"
)

func (t Timespan) Valid() bool {
	return t == TimespanMinute || t == TimespanHour || t == TimespanDay
}

// BankStatementType filters bank statements.
type BankStatementType string

const (
	StatementPayIn       BankStatementType = "pay_in"
	StatementPayOut      BankStatementType = "pay_out"
	StatementOrderBuy    BankStatementType = "order_buy"
	StatementOrderSell   BankStatementType = "order_sell"
	StatementEODBalance  BankStatementType = "eod_balance"
	StatementDividend    BankStatementType = "dividend"
	StatementTaxRefunded BankStatementType = "tax_refunded"
)

func (t BankStatementType) Valid() bool {
	switch t {
	case StatementPayIn, StatementPayOut, StatementOrderBuy, StatementOrderSell,
		StatementEODBalance, StatementDividend, StatementTaxRefunded:
		return true
	}
	return false
}
