package shared

import "context"

// TxRunner runs fn inside one database transaction. Repositories called with
// the ctx handed to fn join that transaction; nested calls reuse it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
