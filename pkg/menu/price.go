package menu

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// CurrencySuffix is appended to prices that do not already name the currency.
const CurrencySuffix = " zł"

// PriceMap maps price element ids (price1, price2, ...) to display strings.
// An empty value clears the element's text.
type PriceMap map[string]string

// Keys returns the keys ordered by their numeric suffix, then lexically.
func (p PriceMap) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		na, errA := strconv.Atoi(strings.TrimPrefix(a, PriceKeyPrefix))
		nb, errB := strconv.Atoi(strings.TrimPrefix(b, PriceKeyPrefix))
		if errA == nil && errB == nil && na != nb {
			return cmp.Compare(na, nb)
		}
		return strings.Compare(a, b)
	})
	return keys
}

// PriceKeyPrefix prefixes the 1-based row position in price element ids.
const PriceKeyPrefix = "price"

// PriceKey returns the element id for the price at the given 1-based row position.
func PriceKey(position int) string {
	return PriceKeyPrefix + strconv.Itoa(position)
}

// PricesFromRows maps each row of a single-column price range to price{N},
// N being the 1-based row position. Values are normalized with [FormatPrice].
func PricesFromRows(rows [][]string) PriceMap {
	prices := make(PriceMap, len(rows))
	for i, row := range rows {
		prices[PriceKey(i+1)] = FormatPrice(cell(row, 0))
	}
	return prices
}

// zlotyMarker matches "zł" with optional inner whitespace, any case, and the
// ASCII spelling "zl", when it is not part of a longer word.
var zlotyMarker = regexp.MustCompile(`(?i)(?:^|[^\p{L}])z\s*[łl](?:$|[^\p{L}])`)

// FormatPrice trims v and appends the złoty suffix unless v already carries it.
// An empty value stays empty.
func FormatPrice(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if zlotyMarker.MatchString(v) {
		return v
	}
	return v + CurrencySuffix
}
