// Package services implements the application services: per-entity CRUD with
// ownership checks, the transaction ledger updater, user registration and
// sessions, and the read-side statistics aggregator.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"centime/internal/core"
)

type owned interface {
	Owner() string
}

// loadOwned is the ownership guard shared by every entity service. The two
// failure modes stay distinct on purpose: a missing row is NotFound, a row
// owned by someone else is Forbidden, and callers must not collapse them
// because the distinction is client-visible.
func loadOwned[T owned](ctx context.Context, fetch func(context.Context, string) (T, error), id, userID, resource string) (T, error) {
	var zero T
	res, err := fetch(ctx, id)
	if err != nil {
		return zero, err
	}
	if res.Owner() != userID {
		return zero, core.Forbiddenf("access to " + resource + " denied")
	}
	return res, nil
}

// boundary converts unexpected persistence failures to a generic internal
// error at the service boundary, logging the detail instead of leaking it.
// The expected taxonomy (NotFound, Forbidden, Conflict) and validation
// errors pass through unchanged.
func boundary(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrNotFound) ||
		errors.Is(err, core.ErrForbidden) ||
		errors.Is(err, core.ErrConflict) ||
		errors.Is(err, core.ErrValidation) {
		return err
	}
	slog.ErrorContext(ctx, "Storage operation failed", "operation", op, "error", err)
	return fmt.Errorf("%w: failed to %s", core.ErrInternal, op)
}
