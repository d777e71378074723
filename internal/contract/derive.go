package contract

import "math"

// CompletionPercent is the share of the total value already paid, rounded
// to the nearest integer. A zero total is defined as 0% rather than a
// division by zero.
func CompletionPercent(paidAmount, totalValue float64) int {
	if totalValue <= 0 {
		return 0
	}
	return int(math.Round(paidAmount / totalValue * 100))
}

// PendingBalance is what remains to be paid against the total value.
func PendingBalance(totalValue, paidAmount float64) float64 {
	return totalValue - paidAmount
}
