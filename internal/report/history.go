package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
)

// HistoryEntry is one line of the fetch history log.
type HistoryEntry struct {
	Timestamp string `csv:"Timestamp"`
	Ticker    string `csv:"Ticker"`
	Source    string `csv:"Source"`
}

// History is an append-only CSV log of fetched tickers. The header is written
// once, when the file is created.
type History struct {
	Path string
	// Now defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

func NewHistory(path string) *History {
	return &History{Path: path}
}

// Append logs that ticker was fetched from source.
func (h *History) Append(ticker, source string) error {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	entries := []HistoryEntry{{Timestamp: now().Format(time.RFC3339), Ticker: ticker, Source: source}}

	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}
	if st.Size() == 0 {
		err = gocsv.Marshal(&entries, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(&entries, f)
	}
	if err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// Entries reads the whole log. A missing file is an empty log.
func (h *History) Entries() ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	var entries []HistoryEntry
	if err := gocsv.UnmarshalFile(f, &entries); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}
