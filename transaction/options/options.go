package options

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebitWindow represents options that can be used to configure a
// recent-debit query against one account's slice of the ledger
type DebitWindow struct {
	// filters entries that have an amount in this range (inclusive)
	Amount *DecimalRange
	// filters entries that were created in this range (inclusive)
	Timestamp *TimeRange
}

func NewDebitWindow() *DebitWindow {
	return &DebitWindow{}
}

func (w *DebitWindow) SetAmountRange(v *DecimalRange) *DebitWindow {
	w.Amount = v
	return w
}

func (w *DebitWindow) SetTimeRange(v *TimeRange) *DebitWindow {
	w.Timestamp = v
	return w
}

// SetAmountFloor bounds the window to amounts >= v
func (w *DebitWindow) SetAmountFloor(v decimal.Decimal) *DebitWindow {
	return w.SetAmountRange(&DecimalRange{Low: &v})
}

// SetTrailing bounds the window to [until-span, until], inclusive on both ends
func (w *DebitWindow) SetTrailing(until time.Time, span time.Duration) *DebitWindow {
	since := until.Add(-span)
	return w.SetTimeRange(&TimeRange{Low: &since, High: &until})
}
