package lemon

import (
	"bytes"
	"context"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/betbot/golemon/pkg/sdk/errs"
)

// OrderParams are the caller-supplied fields of an order. They are also
// the body of POST /orders/.
type OrderParams struct {
	ISIN        string     `json:"isin" validate:"required,len=12,alphanum"`
	ExpiresAt   *Timestamp `json:"expires_at,omitempty"`
	Side        OrderSide  `json:"side" validate:"required,oneof=buy sell"`
	Quantity    int        `json:"quantity" validate:"gt=0"`
	Venue       Venue      `json:"venue" validate:"required"`
	StopPrice   *Amount    `json:"stop_price,omitempty" validate:"omitempty,gt=0"`
	LimitPrice  *Amount    `json:"limit_price,omitempty" validate:"omitempty,gt=0"`
	Notes       string     `json:"notes,omitempty"`
	Idempotency string     `json:"idempotency,omitempty"`
}

func (p OrderParams) record() orderRecord {
	rec := orderRecord{
		Status:     StatusDraft,
		ISIN:       p.ISIN,
		Side:       p.Side,
		Quantity:   p.Quantity,
		Venue:      p.Venue,
		ExpiresAt:  p.ExpiresAt,
		StopPrice:  p.StopPrice,
		LimitPrice: p.LimitPrice,
	}
	if p.Notes != "" {
		rec.Notes = &p.Notes
	}
	if p.Idempotency != "" {
		rec.Idempotency = &p.Idempotency
	}
	return rec
}

// orderRecord is the order as the API reports it.
type orderRecord struct {
	ID                    string                 `json:"id"`
	Status                OrderStatus            `json:"status"`
	ISIN                  string                 `json:"isin"`
	ISINTitle             string                 `json:"isin_title"`
	ExpiresAt             *Timestamp             `json:"expires_at"`
	Side                  OrderSide              `json:"side"`
	Quantity              int                    `json:"quantity"`
	Venue                 Venue                  `json:"venue"`
	Type                  OrderType              `json:"type"`
	StopPrice             *Amount                `json:"stop_price"`
	LimitPrice            *Amount                `json:"limit_price"`
	Notes                 *string                `json:"notes"`
	Idempotency           *string                `json:"idempotency"`
	RegulatoryInformation *RegulatoryInformation `json:"regulatory_information"`
	EstimatedPrice        *Amount                `json:"estimated_price"`
	EstimatedPriceTotal   *Amount                `json:"estimated_price_total"`
	ExecutedQuantity      *int                   `json:"executed_quantity"`
	ExecutedPrice         *Amount                `json:"executed_price"`
	ExecutedPriceTotal    *Amount                `json:"executed_price_total"`
	Charge                *Amount                `json:"charge"`
	ChargeableAt          *Timestamp             `json:"chargeable_at"`
	CreatedAt             *Timestamp             `json:"created_at"`
	ActivatedAt           *Timestamp             `json:"activated_at"`
	ExecutedAt            *Timestamp             `json:"executed_at"`
	RejectedAt            *Timestamp             `json:"rejected_at"`
	CancelledAt           *Timestamp             `json:"cancelled_at"`
	KeyCreationID         *string                `json:"key_creation_id"`
	KeyActivationID       *string                `json:"key_activation_id"`
}

// keepCallerFields fills caller fields the server left out of rec.
func (rec *orderRecord) keepCallerFields(prev orderRecord) {
	if rec.ISIN == "" {
		rec.ISIN = prev.ISIN
	}
	if rec.Side == "" {
		rec.Side = prev.Side
	}
	if rec.Quantity == 0 {
		rec.Quantity = prev.Quantity
	}
	if rec.Venue == "" {
		rec.Venue = prev.Venue
	}
	if rec.ExpiresAt == nil {
		rec.ExpiresAt = prev.ExpiresAt
	}
	if rec.StopPrice == nil {
		rec.StopPrice = prev.StopPrice
	}
	if rec.LimitPrice == nil {
		rec.LimitPrice = prev.LimitPrice
	}
	if rec.Notes == nil {
		rec.Notes = prev.Notes
	}
	if rec.Idempotency == nil {
		rec.Idempotency = prev.Idempotency
	}
}

var mandatoryOrderKeys = []string{"isin", "expires_at", "side", "quantity", "venue"}

// Order is a single order. A draft exists only locally; its caller fields
// may be changed until Place succeeds. Server fields are adopted on Place
// and refreshed by Reload.
type Order struct {
	account *Account
	rec     orderRecord
}

// OrderFromResult builds an unbound order from an API order record. The
// keys isin, expires_at, side, quantity and venue are mandatory.
func OrderFromResult(raw []byte) (*Order, error) {
	rec, err := decodeOrderRecord(raw)
	if err != nil {
		return nil, err
	}
	return &Order{rec: rec}, nil
}

func decodeOrderRecord(raw []byte) (orderRecord, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return orderRecord{}, errs.Invalid("order", "record is not a JSON object: %v", err)
	}
	for _, k := range mandatoryOrderKeys {
		v, ok := keys[k]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return orderRecord{}, errs.Invalid(k, "missing from order record")
		}
	}

	var rec orderRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return orderRecord{}, errs.Invalid("order", "%v", err)
	}
	if rec.Status == "" {
		rec.Status = StatusDraft
	}
	return rec, nil
}

// MarshalJSON encodes the order in the API's record form.
func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.rec)
}

// ToMap returns the order as a generic record, the inverse of
// OrderFromResult.
func (o *Order) ToMap() (map[string]any, error) {
	b, err := json.Marshal(o.rec)
	if err != nil {
		return nil, errors.Wrap(err, "encode order")
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return out, nil
}

func (o *Order) Status() OrderStatus {
	if o.rec.Status == "" {
		return StatusDraft
	}
	return o.rec.Status
}

func (o *Order) ISIN() string { return o.rec.ISIN }
func (o *Order) ISINTitle() string { return o.rec.ISINTitle }
func (o *Order) Side() OrderSide { return o.rec.Side }
func (o *Order) Quantity() int { return o.rec.Quantity }
func (o *Order) Venue() Venue { return o.rec.Venue }
func (o *Order) Type() OrderType { return o.rec.Type }
func (o *Order) StopPrice() *Amount { return copyPtr(o.rec.StopPrice) }
func (o *Order) LimitPrice() *Amount { return copyPtr(o.rec.LimitPrice) }
func (o *Order) ExpiresAt() *Timestamp { return copyPtr(o.rec.ExpiresAt) }
func (o *Order) CreatedAt() *Timestamp { return copyPtr(o.rec.CreatedAt) }
func (o *Order) ExecutedAt() *Timestamp { return copyPtr(o.rec.ExecutedAt) }
func (o *Order) ExecutedPrice() *Amount { return copyPtr(o.rec.ExecutedPrice) }

func (o *Order) Notes() string {
	if o.rec.Notes == nil {
		return ""
	}
	return *o.rec.Notes
}

func (o *Order) Idempotency() string {
	if o.rec.Idempotency == nil {
		return ""
	}
	return *o.rec.Idempotency
}

func (o *Order) ExecutedQuantity() int {
	if o.rec.ExecutedQuantity == nil {
		return 0
	}
	return *o.rec.ExecutedQuantity
}

// ID is assigned by the API and cannot be read from a draft.
func (o *Order) ID() (string, error) {
	if err := o.submitted("read id of"); err != nil {
		return "", err
	}
	return o.rec.ID, nil
}

// RegulatoryInformation cannot be read from a draft.
func (o *Order) RegulatoryInformation() (*RegulatoryInformation, error) {
	if err := o.submitted("read regulatory information of"); err != nil {
		return nil, err
	}
	return copyPtr(o.rec.RegulatoryInformation), nil
}

// EstimatedPrice cannot be read from a draft.
func (o *Order) EstimatedPrice() (Amount, error) {
	if err := o.submitted("read estimated price of"); err != nil {
		return 0, err
	}
	if o.rec.EstimatedPrice == nil {
		return 0, nil
	}
	return *o.rec.EstimatedPrice, nil
}

func (o *Order) SetISIN(isin string) error {
	if err := o.draft("isin"); err != nil {
		return err
	}
	o.rec.ISIN = isin
	return nil
}

func (o *Order) SetSide(side OrderSide) error {
	if err := o.draft("side"); err != nil {
		return err
	}
	o.rec.Side = side
	return nil
}

func (o *Order) SetQuantity(quantity int) error {
	if err := o.draft("quantity"); err != nil {
		return err
	}
	o.rec.Quantity = quantity
	return nil
}

func (o *Order) SetVenue(venue Venue) error {
	if err := o.draft("venue"); err != nil {
		return err
	}
	o.rec.Venue = venue
	return nil
}

// SetStopPrice sets the stop price; nil removes it.
func (o *Order) SetStopPrice(price *Amount) error {
	if err := o.draft("stop_price"); err != nil {
		return err
	}
	o.rec.StopPrice = copyPtr(price)
	return nil
}

// SetLimitPrice sets the limit price; nil removes it.
func (o *Order) SetLimitPrice(price *Amount) error {
	if err := o.draft("limit_price"); err != nil {
		return err
	}
	o.rec.LimitPrice = copyPtr(price)
	return nil
}

func (o *Order) SetNotes(notes string) error {
	if err := o.draft("notes"); err != nil {
		return err
	}
	o.rec.Notes = nil
	if notes != "" {
		o.rec.Notes = &notes
	}
	return nil
}

// SetExpiresAt sets the expiry; a zero Timestamp removes it.
func (o *Order) SetExpiresAt(ts Timestamp) error {
	if err := o.draft("expires_at"); err != nil {
		return err
	}
	o.rec.ExpiresAt = nil
	if !ts.IsZero() {
		o.rec.ExpiresAt = &ts
	}
	return nil
}

func (o *Order) SetIdempotency(key string) error {
	if err := o.draft("idempotency"); err != nil {
		return err
	}
	o.rec.Idempotency = nil
	if key != "" {
		o.rec.Idempotency = &key
	}
	return nil
}

func (o *Order) params() OrderParams {
	return OrderParams{
		ISIN:        o.rec.ISIN,
		ExpiresAt:   o.rec.ExpiresAt,
		Side:        o.rec.Side,
		Quantity:    o.rec.Quantity,
		Venue:       o.rec.Venue,
		StopPrice:   o.rec.StopPrice,
		LimitPrice:  o.rec.LimitPrice,
		Notes:       o.Notes(),
		Idempotency: o.Idempotency(),
	}
}

// Place submits a draft and adopts the server's view of the order. It is
// a no-op once the order has left draft.
func (o *Order) Place(ctx context.Context) error {
	if o.Status() != StatusDraft {
		return nil
	}
	a, err := o.bound()
	if err != nil {
		return err
	}
	p := o.params()
	if err := validate.Struct(p); err != nil {
		return validationError(err)
	}

	resp, err := a.do(ctx, http.MethodPost, "/orders/", nil, p)
	if err != nil {
		return err
	}
	var placed orderRecord
	if err := decodeResults(resp, &placed); err != nil {
		return err
	}
	if placed.ID == "" || placed.Status == "" || placed.Status == StatusDraft {
		return errs.NewTransportError("place order", "", resp.HTTPStatus, errors.New("placed order lacks id or status"))
	}
	placed.keepCallerFields(o.rec)
	o.rec = placed
	return nil
}

// Activate routes a placed order to the venue. Money orders need the PIN,
// which travels in the body. The new status is only visible after Reload.
func (o *Order) Activate(ctx context.Context, pin string) error {
	if o.Status() == StatusDraft {
		return &errs.OrderStatusError{Op: "activate", Status: string(StatusDraft)}
	}
	a, err := o.bound()
	if err != nil {
		return err
	}

	var body any
	if a.mode == ModeMoney {
		if pin == "" {
			return errs.Invalid("pin", "required to activate money orders")
		}
		body = map[string]string{"pin": pin}
	}
	_, err = a.do(ctx, http.MethodPost, orderPath(o.rec.ID)+"activate/", nil, body)
	return err
}

// Cancel cancels a placed order. A draft was never sent, so cancelling it
// succeeds without a request.
func (o *Order) Cancel(ctx context.Context) error {
	status := o.Status()
	if status == StatusDraft {
		return nil
	}
	if !status.Cancelable() {
		return &errs.OrderStatusError{Op: "cancel", Status: string(status)}
	}
	a, err := o.bound()
	if err != nil {
		return err
	}
	return a.CancelOrder(ctx, o.rec.ID)
}

// Reload re-fetches the order and replaces every field with the server's.
func (o *Order) Reload(ctx context.Context) error {
	if err := o.submitted("reload"); err != nil {
		return err
	}
	a, err := o.bound()
	if err != nil {
		return err
	}

	var raw json.RawMessage
	if err := a.get(ctx, orderPath(o.rec.ID), nil, &raw); err != nil {
		return err
	}
	fresh, err := decodeOrderRecord(raw)
	if err != nil {
		return err
	}
	o.rec = fresh
	return nil
}

// WaitFor reloads the order every interval until its status is one of
// statuses or ctx ends, and returns the last observed status.
func (o *Order) WaitFor(ctx context.Context, interval time.Duration, statuses ...OrderStatus) (OrderStatus, error) {
	if len(statuses) == 0 {
		return o.Status(), errs.Invalid("statuses", "nothing to wait for")
	}
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := o.Reload(ctx); err != nil {
			return o.Status(), err
		}
		if slices.Contains(statuses, o.Status()) {
			return o.Status(), nil
		}
		select {
		case <-ctx.Done():
			return o.Status(), ctx.Err()
		case <-ticker.C:
		}
	}
}

func (o *Order) draft(field string) error {
	if s := o.Status(); s != StatusDraft {
		return &errs.OrderStatusError{Op: "set " + field + " of", Status: string(s)}
	}
	return nil
}

func (o *Order) submitted(op string) error {
	if o.Status() == StatusDraft {
		return &errs.OrderStatusError{Op: op, Status: string(StatusDraft)}
	}
	return nil
}

func (o *Order) bound() (*Account, error) {
	if o.account == nil {
		return nil, errs.Invalid("order", "not bound to an account")
	}
	return o.account, nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		f := ve[0]
		return errs.Invalid(f.Field(), "failed %q check", f.Tag())
	}
	return errs.Invalid("", "%v", err)
}
