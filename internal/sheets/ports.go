package sheets

import (
	"context"

	"centime/internal/core"
)

// Entry is one ledger row as mirrored to a spreadsheet. Names are resolved
// before the entry reaches a writer so adapters stay dumb.
type Entry struct {
	Date          core.Date
	Description   string
	Amount        core.Money
	Type          core.TransactionType
	AccountName   string
	CategoryName  string
	RecipientName string
}

// LedgerWriter is the outbound port for the spreadsheet mirror.
type LedgerWriter interface {
	AppendEntry(ctx context.Context, e Entry) (rowRef string, err error)
}
