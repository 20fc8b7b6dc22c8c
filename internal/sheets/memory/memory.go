package memory

import (
	"context"
	"fmt"
	"sync"

	ports "centime/internal/sheets"
)

// Writer is an in-memory LedgerWriter for tests and broker-less runs.
type Writer struct {
	mu      sync.Mutex
	entries []ports.Entry
}

var _ ports.LedgerWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

// AppendEntry stores the entry and returns a synthetic row reference.
func (w *Writer) AppendEntry(_ context.Context, e ports.Entry) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	return fmt.Sprintf("mem:%d", len(w.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (w *Writer) Entries() []ports.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ports.Entry(nil), w.entries...)
}
