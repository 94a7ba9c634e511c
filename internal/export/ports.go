package export

import (
	"context"

	"budgetbook/internal/core"
)

// Ports for outbound export adapters.
type (
	// TransactionWriter appends a transaction to the export destination and
	// returns a destination-specific row reference.
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover deletes a previously exported transaction by id.
	TransactionRemover interface {
		Remove(ctx context.Context, id string) error
	}
)
