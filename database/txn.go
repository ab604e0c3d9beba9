package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a multi-document transaction. The context
// handed to fn is a mongo.SessionContext; every repository call made with it
// joins the transaction. fn returning an error aborts, otherwise the
// transaction commits.
func WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := MongoClient.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// IsTransientConflict reports whether a transaction aborted because a
// concurrent transaction wrote the same documents. Callers re-read and
// surface a domain error instead of retrying blindly.
func IsTransientConflict(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.HasErrorLabel("TransientTransactionError") || ce.Code == 112
	}
	return false
}
