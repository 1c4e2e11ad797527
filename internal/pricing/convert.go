package pricing

import "github.com/shopspring/decimal"

// DefaultMarkup is the multiplier applied to every fan-token price quoted
// in local currency.
var DefaultMarkup = decimal.RequireFromString("1.3")

// Quote carries a single price conversion: the fan-token amount it was
// computed from, the resulting BRL amount and the rate that was used.
type Quote struct {
	FanToken decimal.Decimal `json:"fanToken"`
	BRL      decimal.Decimal `json:"reais"`
	Rate     decimal.Decimal `json:"rate"`
}

// Convert turns a fan-token amount into a local-currency amount at the
// given rate and markup, rounded to 2 decimal places. Every call site that
// quotes a price goes through here.
func Convert(amount, rate, markup decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Mul(markup).Round(2)
}

// NewQuote builds the conversion sub-object attached to listings and
// ticket views.
func NewQuote(amount, rate, markup decimal.Decimal) *Quote {
	return &Quote{
		FanToken: amount,
		BRL:      Convert(amount, rate, markup),
		Rate:     rate,
	}
}
