package domain

import "context"

// TransactionManager runs fn inside one database transaction. Repositories
// participating in the transaction pick it up from the context.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
