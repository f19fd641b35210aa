// Package sheets mirrors transactions into a spreadsheet, one row per
// transaction keyed by its id and owner in the first two columns.
package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionMirror interface {
		// UpsertTransaction overwrites the row holding tx.ID of userID, or appends one.
		UpsertTransaction(ctx context.Context, userID string, tx core.Transaction) error
		// DeleteTransaction removes the row holding id of userID. Unknown ids are not an error.
		DeleteTransaction(ctx context.Context, userID, id string) error
	}
)
