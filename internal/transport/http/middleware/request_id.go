package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"hrpay/internal/requestctx"
)

const headerRequestID = "X-Request-ID"

// maxRequestIDLen caps what a caller-supplied id may occupy in logs and
// response envelopes; anything longer is replaced.
const maxRequestIDLen = 64

// RequestID honors a caller-supplied X-Request-ID when it is reasonable,
// generates one otherwise, and echoes it on the response so clients can
// correlate their calls with the server logs.
func RequestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), id)))
	}
	return http.HandlerFunc(fn)
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
