package market

import (
	"strings"

	"coinboard/internal/provider"

	"github.com/shopspring/decimal"
)

// ChangeWidth is how many characters of the 24h change are shown.
const ChangeWidth = 6

// Headers are the fixed table columns, in Cells order.
var Headers = []string{"Symbol", "Name", "Price(USD)", "Price Change 24h"}

// Row is one rendered table line. It owns its text.
type Row struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Change string `json:"change"`
	// Down is true when the 24h change is negative.
	Down bool `json:"down"`
}

// Cells returns the four display columns.
func (r Row) Cells() []string {
	return []string{r.Symbol, r.Name, r.Price, r.Change}
}

// ToDisplayRows projects assets into rows, preserving order.
// The result never shares memory with the input.
func ToDisplayRows(assets []provider.Asset) []Row {
	rows := make([]Row, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, Row{
			Symbol: strings.Clone(a.Symbol),
			Name:   strings.Clone(a.Name),
			Price:  FormatPrice(a.PriceUSD),
			Change: FormatChange(a.ChangePercent24Hr),
			Down:   IsDown(a.ChangePercent24Hr),
		})
	}
	return rows
}

func FormatPrice(priceUSD string) string {
	return "$" + priceUSD
}

// FormatChange keeps the first ChangeWidth characters and appends "%".
// "-2.345678" becomes "-2.345%"; "0.5" becomes "0.5%".
func FormatChange(change string) string {
	return Truncate(change, ChangeWidth) + "%"
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// IsDown reports whether a change percentage is negative. A leading U+2212
// minus sign counts as "-". Text that is not a number falls back to its
// leading sign.
func IsDown(change string) bool {
	change = strings.TrimSpace(change)
	if rest, ok := strings.CutPrefix(change, "−"); ok {
		change = "-" + rest
	}
	d, err := decimal.NewFromString(change)
	if err != nil {
		return strings.HasPrefix(change, "-")
	}
	return d.IsNegative()
}
