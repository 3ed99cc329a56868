package provider

import (
	"finmetrics/internal/metrics"
)

// Rule resolves one canonical metric from a raw payload. Rules never fail:
// anything absent or unusable resolves to metrics.NA.
type Rule func(p Payload) metrics.Value

// Table is a static mapping from canonical key to rule. Keys without a rule
// resolve to metrics.NA.
type Table map[metrics.Key]Rule

// Apply evaluates the table for every key of view.
func (t Table) Apply(ticker string, id ID, view metrics.View, p Payload) metrics.Record {
	values := make(map[metrics.Key]metrics.Value, len(t))
	for _, k := range view.Keys() {
		if rule, ok := t[k]; ok && rule != nil {
			values[k] = rule(p)
		}
	}
	return metrics.NewRecord(ticker, id.String(), view, values)
}

// Field reads a (possibly nested) field and coerces it to a number.
func Field(path ...string) Rule {
	return func(p Payload) metrics.Value {
		raw, ok := p.Lookup(path...)
		if !ok {
			return metrics.NA
		}
		return metrics.Number(raw)
	}
}

// FirstOf returns the first available value among rules.
func FirstOf(rules ...Rule) Rule {
	return func(p Payload) metrics.Value {
		for _, r := range rules {
			if v := r(p); v.Available() {
				return v
			}
		}
		return metrics.NA
	}
}

// Scaled multiplies the value of r by factor, used for unit conversion.
func Scaled(r Rule, factor float64) Rule {
	return func(p Payload) metrics.Value {
		f, ok := r(p).Float()
		if !ok {
			return metrics.NA
		}
		return metrics.Of(f * factor)
	}
}

// Ratio divides num by den. A missing operand or a zero denominator yields NA.
func Ratio(num, den Rule) Rule {
	return func(p Payload) metrics.Value {
		n, ok := num(p).Float()
		if !ok {
			return metrics.NA
		}
		d, ok := den(p).Float()
		if !ok || d == 0 {
			return metrics.NA
		}
		return metrics.Of(n / d)
	}
}
