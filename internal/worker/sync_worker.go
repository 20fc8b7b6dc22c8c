package worker

import (
	"context"
	"fmt"
	"log/slog"

	"centime/internal/amqp"
	"centime/internal/sheets"
	"centime/internal/storage"
)

// SyncWorker mirrors committed transactions to a spreadsheet. The mirror is
// append-only: created events are written, update and delete events are
// acknowledged without touching the sheet since rows there carry no id to
// find them by.
type SyncWorker struct {
	store  storage.Store
	ledger sheets.LedgerWriter
}

func NewSyncWorker(store storage.Store, ledger sheets.LedgerWriter) *SyncWorker {
	return &SyncWorker{store: store, ledger: ledger}
}

// HandleLedgerEvent processes one event from the queue. Returning an error
// requeues the message, so lookups that can never succeed (the transaction
// was deleted before we consumed the event) are logged and dropped instead.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"transaction_id", msg.TransactionID,
		"action", msg.Action)

	if msg.Action != amqp.ActionCreated {
		slog.InfoContext(ctx, "Skipping non-create event for append-only mirror",
			"transaction_id", msg.TransactionID,
			"action", msg.Action)
		return nil
	}

	transaction, err := w.store.TransactionByID(ctx, msg.TransactionID)
	if err != nil {
		slog.WarnContext(ctx, "Transaction gone before mirror, dropping event",
			"transaction_id", msg.TransactionID, "error", err)
		return nil
	}

	account, err := w.store.AccountByID(ctx, transaction.AccountID)
	if err != nil {
		return fmt.Errorf("load account for mirror: %w", err)
	}
	category, err := w.store.CategoryByID(ctx, transaction.CategoryID)
	if err != nil {
		return fmt.Errorf("load category for mirror: %w", err)
	}

	entry := sheets.Entry{
		Date:          transaction.Date,
		Description:   transaction.Description,
		Amount:        transaction.Amount,
		Type:          transaction.Type,
		AccountName:   account.Name,
		CategoryName:  category.Name,
		RecipientName: transaction.RecipientName,
	}

	ref, err := w.ledger.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"transaction_id", msg.TransactionID,
		"sheets_ref", ref,
		"amount_cents", transaction.Amount.Cents)
	return nil
}
