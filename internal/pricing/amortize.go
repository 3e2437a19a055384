package pricing

import "math"

// MonthlyPayment converts an annual rate, principal, and term into the fixed
// periodic payment, rounded to currency precision. A zero rate degrades to
// straight-line repayment. Negative rates flow through the same formula.
func MonthlyPayment(apr, principal float64, months int) (float64, error) {
	if months <= 0 {
		return 0, ErrInvalidTerm
	}
	r := apr / 12
	if r == 0 {
		return round2(principal / float64(months)), nil
	}
	payment := (r * principal) / (1 - math.Pow(1+r, -float64(months)))
	return round2(payment), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
