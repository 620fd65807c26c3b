// Package httputil provides retry helpers for calls to remote APIs.
//
// [Retry] runs an operation up to a fixed number of attempts with a doubling
// delay. Only errors wrapped in [RetryableError] are retried, so callers
// decide what counts as transient:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := call(ctx)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    if httputil.RetryableStatus(resp.StatusCode) {
//	        return &httputil.RetryableError{Err: fmt.Errorf("status %d", resp.StatusCode)}
//	    }
//	    return nil
//	})
//
// Spreadsheet reads go through [Retry]; nothing here caches responses.
package httputil
