package metrics

import (
	"fmt"
	"strings"
)

// Key identifies a canonical metric independent of the data provider.
type Key string

const (
	PERatio    Key = "PE_RATIO"
	EPS        Key = "EPS"
	EBITDA     Key = "EBITDA"
	CashFlow   Key = "CASH_FLOW"
	Revenue    Key = "REVENUE"
	ROE        Key = "ROE"
	ROA        Key = "ROA"
	DebtEquity Key = "DEBT_EQUITY"
	MarketCap  Key = "MARKET_CAP"
)

var labels = map[Key]string{
	PERatio:    "P/E Ratio",
	EPS:        "EPS",
	EBITDA:     "EBITDA",
	CashFlow:   "Cash Flow",
	Revenue:    "Revenue",
	ROE:        "ROE",
	ROA:        "ROA",
	DebtEquity: "Debt/Equity",
	MarketCap:  "Market Cap",
}

// Label is the human readable name used by tables and charts.
func (k Key) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// View selects which canonical keys a record carries.
type View int

const (
	ViewCore View = iota
	ViewExtended
)

var (
	coreKeys     = []Key{PERatio, EPS, EBITDA, CashFlow, Revenue}
	extendedKeys = []Key{PERatio, EPS, EBITDA, CashFlow, Revenue, ROE, ROA, DebtEquity, MarketCap}
)

// Keys returns the ordered canonical key set of the view.
func (v View) Keys() []Key {
	if v == ViewExtended {
		return append([]Key(nil), extendedKeys...)
	}
	return append([]Key(nil), coreKeys...)
}

// Has reports whether k belongs to the view.
func (v View) Has(k Key) bool {
	for _, x := range v.Keys() {
		if x == k {
			return true
		}
	}
	return false
}

func (v View) String() string {
	if v == ViewExtended {
		return "extended"
	}
	return "core"
}

// ParseView accepts "core", "extended" and the empty string (core).
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "core", "basic":
		return ViewCore, nil
	case "extended", "full", "all":
		return ViewExtended, nil
	}
	return ViewCore, fmt.Errorf("unknown metrics view %q", s)
}

func (v View) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *View) UnmarshalText(b []byte) error {
	parsed, err := ParseView(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
