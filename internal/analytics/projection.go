package analytics

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Projection carries running totals over a monthly series and a linear
// estimate for the month after the last one.
type Projection struct {
	CumulativeExpense []core.Money `json:"cumulativeExpense"`
	CumulativeIncome  []core.Money `json:"cumulativeIncome"`
	NextExpense       core.Money   `json:"nextExpense"`
	NextIncome        core.Money   `json:"nextIncome"`
}

// Project computes running totals and a least-squares projection of the
// next month for both series.
func Project(m Monthly) Projection {
	return Projection{
		CumulativeExpense: cumulative(m.ExpenseTotals),
		CumulativeIncome:  cumulative(m.IncomeTotals),
		NextExpense:       nextLinear(m.ExpenseTotals),
		NextIncome:        nextLinear(m.IncomeTotals),
	}
}

func cumulative(values []core.Money) []core.Money {
	out := make([]core.Money, len(values))
	var run int64
	for i, v := range values {
		run += v.Cents
		out[i] = core.Money{Cents: run}
	}
	return out
}

// nextLinear fits y = a + b*x over x = 0..n-1 and evaluates x = n. The
// result is clamped at zero since amounts are magnitudes.
func nextLinear(values []core.Money) core.Money {
	n := len(values)
	switch n {
	case 0:
		return core.Money{}
	case 1:
		return values[0]
	}

	var sumX, sumY, sumXY, sumXX int64
	for i, v := range values {
		x := int64(i)
		sumX += x
		sumY += v.Cents
		sumXY += x * v.Cents
		sumXX += x * x
	}

	dn := decimal.NewFromInt(int64(n))
	num := dn.Mul(decimal.NewFromInt(sumXY)).Sub(decimal.NewFromInt(sumX).Mul(decimal.NewFromInt(sumY)))
	den := dn.Mul(decimal.NewFromInt(sumXX)).Sub(decimal.NewFromInt(sumX).Mul(decimal.NewFromInt(sumX)))
	slope := num.Div(den)
	intercept := decimal.NewFromInt(sumY).Sub(slope.Mul(decimal.NewFromInt(sumX))).Div(dn)

	next := intercept.Add(slope.Mul(dn)).Round(0).IntPart()
	if next < 0 {
		next = 0
	}
	return core.Money{Cents: next}
}
