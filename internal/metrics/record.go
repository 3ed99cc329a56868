package metrics

import (
	"encoding/json"
	"fmt"
)

// Entry is one metric/value pair of a Record.
type Entry struct {
	Key   Key   `json:"key"`
	Value Value `json:"value"`
}

// Record is the canonical, ordered result of a fetch. It always holds every
// key of its view; keys without usable data carry NA. A Record is not
// modified after construction.
type Record struct {
	ticker   string
	provider string
	view     View
	entries  []Entry
}

// NewRecord builds a record for view from values. Keys of the view missing
// from values become NA; keys outside the view are dropped.
func NewRecord(ticker, provider string, view View, values map[Key]Value) Record {
	keys := view.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Value: values[k]})
	}
	return Record{ticker: ticker, provider: provider, view: view, entries: entries}
}

func (r Record) Ticker() string   { return r.ticker }
func (r Record) Provider() string { return r.provider }
func (r Record) View() View       { return r.view }
func (r Record) Len() int         { return len(r.entries) }

// Get returns the value for k, or NA when k is not part of the record.
func (r Record) Get(k Key) Value {
	for _, e := range r.entries {
		if e.Key == k {
			return e.Value
		}
	}
	return NA
}

// Entries returns a copy of the ordered entries.
func (r Record) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Keys returns the ordered key set.
func (r Record) Keys() []Key {
	out := make([]Key, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Key
	}
	return out
}

// Missing returns the keys whose value is NA.
func (r Record) Missing() []Key {
	var out []Key
	for _, e := range r.entries {
		if !e.Value.Available() {
			out = append(out, e.Key)
		}
	}
	return out
}

// WithTicker returns a copy of r reported under ticker. Entries are shared;
// records are immutable.
func (r Record) WithTicker(ticker string) Record {
	r.ticker = ticker
	return r
}

// Equal compares two records field for field.
func (r Record) Equal(o Record) bool {
	if r.ticker != o.ticker || r.provider != o.provider || r.view != o.view || len(r.entries) != len(o.entries) {
		return false
	}
	for i := range r.entries {
		if r.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

type recordJSON struct {
	Ticker   string  `json:"ticker"`
	Provider string  `json:"provider"`
	View     View    `json:"view"`
	Metrics  []Entry `json:"metrics"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	entries := r.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(recordJSON{Ticker: r.ticker, Provider: r.provider, View: r.view, Metrics: entries})
}

// UnmarshalJSON restores a record and re-establishes the view invariant.
func (r *Record) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	values := make(map[Key]Value, len(raw.Metrics))
	for _, e := range raw.Metrics {
		if !raw.View.Has(e.Key) {
			return fmt.Errorf("metric %q is not part of the %s view", e.Key, raw.View)
		}
		values[e.Key] = e.Value
	}
	*r = NewRecord(raw.Ticker, raw.Provider, raw.View, values)
	return nil
}
