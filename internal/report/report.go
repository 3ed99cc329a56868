package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gocarina/gocsv"

	"finmetrics/internal/metrics"
)

// WriteTable writes rec as an aligned two-column Metric/Value table with two
// decimals per value.
func WriteTable(w io.Writer, rec metrics.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Metric\tValue")
	for _, e := range rec.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Key.Label(), e.Value.Format(2))
	}
	return tw.Flush()
}

// Text renders rec with a title line, as used for display and email bodies.
func Text(rec metrics.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", rec.Ticker(), rec.Provider())
	_ = WriteTable(&b, rec)
	return b.String()
}

// Point is one bar of a chart.
type Point struct {
	Label string  `json:"label"`
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// ChartSeries returns the available values of rec in key order. N/A entries
// are skipped.
func ChartSeries(rec metrics.Record) []Point {
	out := make([]Point, 0, rec.Len())
	for _, e := range rec.Entries() {
		if f, ok := e.Value.Float(); ok {
			out = append(out, Point{Label: e.Key.Label(), Key: string(e.Key), Value: f})
		}
	}
	return out
}

// Row is one line of the CSV export.
type Row struct {
	Metric string `csv:"Metric"`
	Value  string `csv:"Value"`
}

// Rows flattens rec into CSV rows; N/A stays textual.
func Rows(rec metrics.Record) []Row {
	rows := make([]Row, 0, rec.Len())
	for _, e := range rec.Entries() {
		rows = append(rows, Row{Metric: e.Key.Label(), Value: e.Value.String()})
	}
	return rows
}

// WriteCSV writes rec as Metric,Value CSV with a header.
func WriteCSV(w io.Writer, rec metrics.Record) error {
	rows := Rows(rec)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
