package pricing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	moneyStripper = strings.NewReplacer("$", "", " ", "", "\u00a0", "")
	// Commas are only accepted as thousands separators: "1,234.50" but not "1,5".
	groupedAmount = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)
)

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount reads a user-entered numeric value. Currency symbols, spaces and
// thousands separators are ignored. A comma anywhere else is rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := moneyStripper.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotANumber)
	}
	if strings.Contains(cleaned, ",") {
		if !groupedAmount.MatchString(cleaned) {
			return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotANumber)
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", raw, ErrNotANumber)
	}
	return d, nil
}

// FormatMoney renders an amount with a dollar sign, thousands grouping and two decimals.
func FormatMoney(d decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	f, _ := Round2(d).Float64()
	if f < 0 {
		return "-$" + p.Sprint(number.Decimal(-f, number.Scale(2)))
	}
	return "$" + p.Sprint(number.Decimal(f, number.Scale(2)))
}
