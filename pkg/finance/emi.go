package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// CalculateEMI computes the equated monthly installment using the standard
// reducing-balance formula:
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// where P is the principal, r the monthly rate and n the tenure in months.
// The result is rounded to the nearest whole currency unit; that rounding is
// the correctness boundary, so float64 is sufficient for the pow term even at
// 360-month tenures and 10^9 principals.
func CalculateEMI(principal decimal.Decimal, annualRatePercent decimal.Decimal, tenureMonths int) decimal.Decimal {
	p := principal.InexactFloat64()
	monthlyRate := annualRatePercent.InexactFloat64() / 12 / 100

	if monthlyRate == 0 {
		return decimal.NewFromFloat(math.Round(p / float64(tenureMonths)))
	}

	factor := math.Pow(1+monthlyRate, float64(tenureMonths))
	emi := p * monthlyRate * factor / (factor - 1)

	return decimal.NewFromFloat(math.Round(emi))
}

// TotalPayable returns EMI * tenure, the gross repayment over the loan's life.
func TotalPayable(emi decimal.Decimal, tenureMonths int) decimal.Decimal {
	return emi.Mul(decimal.NewFromInt(int64(tenureMonths)))
}

// TotalInterest returns the interest component of the gross repayment.
func TotalInterest(principal, emi decimal.Decimal, tenureMonths int) decimal.Decimal {
	return TotalPayable(emi, tenureMonths).Sub(principal)
}
