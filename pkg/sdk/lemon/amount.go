package lemon

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// UnitsPerEuro is the number of Amount units in one euro.
const UnitsPerEuro = 10000

// Amount is a monetary value in hundredths of a cent (1 € = 10000 units),
// the convention of every price and balance on the wire.
type Amount int64

// UnmarshalJSON accepts integers and integral numbers written with a
// fraction or exponent (0.0, 2.5e4). Non-integral values are rejected.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*a = Amount(n)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.Wrapf(err, "amount %s", s)
	}
	if !d.IsInteger() {
		return errors.Errorf("amount %s is not a whole number of units", s)
	}
	*a = Amount(d.IntPart())
	return nil
}

// Decimal returns the amount in units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(a))
}

// Euro converts to euros for display. It is never sent to the API.
func (a Amount) Euro() decimal.Decimal {
	return decimal.New(int64(a), -4)
}

// AmountFromEuro converts a euro value to units, failing when it has more
// than four decimal places.
func AmountFromEuro(eur decimal.Decimal) (Amount, error) {
	units := eur.Shift(4)
	if !units.IsInteger() {
		return 0, errors.Errorf("%s EUR is finer than 1/10000", eur.String())
	}
	return Amount(units.IntPart()), nil
}
