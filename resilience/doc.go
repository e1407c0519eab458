// Package resilience retries transient failures with exponential backoff.
//
// Storage writes of module outputs, metadata and history go through Retry so
// a flaky backend does not fail a whole run:
//
//	err := resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func() error {
//	    return store.Upload(ctx, path, bytes.NewReader(data))
//	})
package resilience
