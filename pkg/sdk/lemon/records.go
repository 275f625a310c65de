package lemon

// AccountState is the result of GET /account/.
type AccountState struct {
	CreatedAt             Timestamp  `json:"created_at"`
	AccountID             string     `json:"account_id"`
	Firstname             string     `json:"firstname"`
	Lastname              string     `json:"lastname"`
	Email                 string     `json:"email"`
	Phone                 *string    `json:"phone"`
	Address               *string    `json:"address"`
	BillingAddress        *string    `json:"billing_address"`
	BillingEmail          *string    `json:"billing_email"`
	BillingName           *string    `json:"billing_name"`
	BillingVAT            *string    `json:"billing_vat"`
	Mode                  Mode       `json:"mode"`
	DepositID             *string    `json:"deposit_id"`
	ClientID              *string    `json:"client_id"`
	AccountNumber         *string    `json:"account_number"`
	IBANBrokerage         *string    `json:"iban_brokerage"`
	IBANOrigin            *string    `json:"iban_origin"`
	BankNameOrigin        *string    `json:"bank_name_origin"`
	Balance               Amount     `json:"balance"`
	CashToInvest          Amount     `json:"cash_to_invest"`
	CashToWithdraw        Amount     `json:"cash_to_withdraw"`
	AmountBoughtIntraday  Amount     `json:"amount_bought_intraday"`
	AmountSoldIntraday    Amount     `json:"amount_sold_intraday"`
	AmountOpenOrders      Amount     `json:"amount_open_orders"`
	AmountOpenWithdrawals Amount     `json:"amount_open_withdrawals"`
	AmountEstimateTaxes   Amount     `json:"amount_estimate_taxes"`
	ApprovedAt            *Timestamp `json:"approved_at"`
	TradingPlan           string     `json:"trading_plan"`
	DataPlan              string     `json:"data_plan"`
	TaxAllowance          *Amount    `json:"tax_allowance"`
	TaxAllowanceStart     *Timestamp `json:"tax_allowance_start"`
	TaxAllowanceEnd       *Timestamp `json:"tax_allowance_end"`
}

// Position is one holding, as returned by GET /positions/.
type Position struct {
	ISIN                string `json:"isin"`
	ISINTitle           string `json:"isin_title"`
	Quantity            int    `json:"quantity"`
	BuyPriceAvg         Amount `json:"buy_price_avg"`
	EstimatedPriceTotal Amount `json:"estimated_price_total"`
	EstimatedPrice      Amount `json:"estimated_price"`
}

// Withdrawal is one entry of GET /account/withdrawals/.
type Withdrawal struct {
	ID          string     `json:"id"`
	Amount      Amount     `json:"amount"`
	CreatedAt   Timestamp  `json:"created_at"`
	Date        *Timestamp `json:"date"`
	Idempotency *string    `json:"idempotency"`
}

// BankStatement is one entry of GET /account/bankstatements/.
type BankStatement struct {
	ID        string            `json:"id"`
	AccountID string            `json:"account_id"`
	Type      BankStatementType `json:"type"`
	Date      Timestamp         `json:"date"`
	Amount    Amount            `json:"amount"`
	ISIN      *string           `json:"isin"`
	ISINTitle *string           `json:"isin_title"`
	CreatedAt Timestamp         `json:"created_at"`
}

// Document is one entry of GET /account/documents/.
type Document struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	Link          string     `json:"link"`
	CreatedAt     Timestamp  `json:"created_at"`
	ViewedFirstAt *Timestamp `json:"viewed_first_at"`
	ViewedLastAt  *Timestamp `json:"viewed_last_at"`
}

// RegulatoryInformation is the cost breakdown the API attaches to a placed
// order. Percentages are preformatted strings such as "1.18%".
type RegulatoryInformation struct {
	CostsEntry                      Amount `json:"costs_entry"`
	CostsEntryPct                   string `json:"costs_entry_pct"`
	CostsRunning                    Amount `json:"costs_running"`
	CostsRunningPct                 string `json:"costs_running_pct"`
	CostsProduct                    Amount `json:"costs_product"`
	CostsProductPct                 string `json:"costs_product_pct"`
	CostsExit                       Amount `json:"costs_exit"`
	CostsExitPct                    string `json:"costs_exit_pct"`
	YieldReductionYear              Amount `json:"yield_reduction_year"`
	YieldReductionYearPct           string `json:"yield_reduction_year_pct"`
	YieldReductionYearFollowing     Amount `json:"yield_reduction_year_following"`
	YieldReductionYearFollowingPct  string `json:"yield_reduction_year_following_pct"`
	YieldReductionYearExit          Amount `json:"yield_reduction_year_exit"`
	YieldReductionYearExitPct       string `json:"yield_reduction_year_exit_pct"`
	EstimatedHoldingDurationYears   string `json:"estimated_holding_duration_years"`
	EstimatedYieldReductionTotal    Amount `json:"estimated_yield_reduction_total"`
	EstimatedYieldReductionTotalPct string `json:"estimated_yield_reduction_total_pct"`
	KIID                            string `json:"KIID"`
	LegalDisclaimer                 string `json:"legal_disclaimer"`
}

// Instrument is one entry of GET /instruments/.
type Instrument struct {
	ISIN   string            `json:"isin"`
	WKN    string            `json:"wkn"`
	Name   string            `json:"name"`
	Title  string            `json:"title"`
	Symbol string            `json:"symbol"`
	Type   InstrumentType    `json:"type"`
	Venues []InstrumentVenue `json:"venues"`

	market *MarketData
}

// InstrumentVenue is a venue an instrument is listed on.
type InstrumentVenue struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	MIC      Venue  `json:"mic"`
	IsOpen   bool   `json:"is_open"`
	Tradable bool   `json:"tradable"`
	Currency string `json:"currency"`
}

// TradingVenue is one entry of GET /venues/.
type TradingVenue struct {
	Name         string       `json:"name"`
	Title        string       `json:"title"`
	MIC          Venue        `json:"mic"`
	IsOpen       bool         `json:"is_open"`
	OpeningHours OpeningHours `json:"opening_hours"`
	OpeningDays  []string     `json:"opening_days"`
}

type OpeningHours struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// Quote is a bid/ask snapshot; prices are in Amount units.
type Quote struct {
	ISIN      string    `json:"isin"`
	BidVolume int64     `json:"b_v"`
	AskVolume int64     `json:"a_v"`
	Bid       Amount    `json:"b"`
	Ask       Amount    `json:"a"`
	Time      Timestamp `json:"t"`
	MIC       Venue     `json:"mic"`
}

// Trade is a single execution on a venue.
type Trade struct {
	ISIN   string    `json:"isin"`
	Price  Amount    `json:"p"`
	Volume int64     `json:"v"`
	Time   Timestamp `json:"t"`
	MIC    Venue     `json:"mic"`
}

// OHLC is one bar of aggregated prices.
type OHLC struct {
	ISIN          string    `json:"isin"`
	Open          Amount    `json:"o"`
	High          Amount    `json:"h"`
	Low           Amount    `json:"l"`
	Close         Amount    `json:"c"`
	Volume        int64     `json:"v"`
	PriceByVolume Amount    `json:"pbv"`
	Time          Timestamp `json:"t"`
	MIC           Venue     `json:"mic"`
}
