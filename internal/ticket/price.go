package ticket

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// pricePattern accepts an amount with at most two decimals followed by a
// three-letter currency code, e.g. "10.50 EUR" or "10 EUR".
var pricePattern = regexp.MustCompile(`^\d+(\.\d{1,2})? [A-Z]{3}$`)

const priceRule = `must look like "10.50 EUR": an amount with at most two decimals and a three-letter currency code`

// ParsePrice splits a "<amount> <CUR>" string into its decimal amount and
// currency code.
func ParsePrice(s string) (decimal.Decimal, string, error) {
	if !pricePattern.MatchString(s) {
		return decimal.Decimal{}, "", invalid("price", priceRule)
	}
	amount, currency, _ := strings.Cut(s, " ")
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, "", invalid("price", priceRule)
	}
	return d, currency, nil
}
