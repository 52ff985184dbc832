// Package retry retries connection establishment with exponential backoff.
//
// Only connecting is retried. Sanitization statements are never re-run by
// this package: a failed bulk statement is reported, not repeated.
//
//	executor := retry.NewExecutor(retry.NewConnectClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return ping(ctx)
//	})
package retry
