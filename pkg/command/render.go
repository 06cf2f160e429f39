package command

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Render formats a payload back into command text that parses to the same
// payload
func Render(p Payload) string {
	parts := []string{string(p.Command())}

	switch cmd := p.(type) {
	case Add:
		parts = append(parts, string(cmd.Type), cmd.Ticker)
		parts = appendPrices(parts, cmd.Prices...)
	case Step:
		parts = append(parts, string(cmd.Type), cmd.Ticker)
		parts = appendPrices(parts, cmd.From, cmd.To, cmd.Step)
	case Price:
		parts = append(parts, cmd.Ticker)
	case Delete:
		parts = append(parts, cmd.Ticker)
		if !cmd.All {
			parts = appendPrices(parts, cmd.Prices...)
		}
	}

	return strings.Join(parts, " ")
}

func appendPrices(parts []string, prices ...decimal.Decimal) []string {
	for _, price := range prices {
		parts = append(parts, price.String())
	}
	return parts
}
