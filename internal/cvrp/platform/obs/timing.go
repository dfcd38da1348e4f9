// Package obs provides minimal request-scoped timing instrumentation,
// threaded through a context key rather than a global logger.
package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

// RequestIDKey tags a context with a caller-supplied request/run identifier
// so timing lines can be correlated across a solve.
const RequestIDKey ctxKey = "req_id"

// Time starts a timer for the named operation and returns a function that
// logs its duration (and error, if any) when called. Usage:
//
//	defer obs.Time(ctx, "routing.GetMatrix")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("req_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}
