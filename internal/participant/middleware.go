// Package participant identifies the caller of a request. Participants are
// anonymous: the id is an opaque token minted by the client and sent on every
// request, and the display name travels with the commands that need it.
package participant

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rx3lixir/groupdecide/pkg/httputil"
)

const Header = "X-Participant-ID"

type contextKey string

const idKey contextKey = "participant_id"

var validate = validator.New()

// ValidID reports whether raw is acceptable as a participant id.
func ValidID(raw string) bool {
	if strings.ContainsAny(raw, " \t") {
		return false
	}
	return validate.Var(raw, "required,max=64,printascii") == nil
}

// Middleware rejects requests without a usable participant id and stores the
// id in the request context.
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(Header))
			if id == "" {
				httputil.RespondError(w, r, httputil.Unauthorized("participant id required"), log)
				return
			}
			if !ValidID(id) {
				httputil.RespondError(w, r, httputil.BadRequest("invalid participant id"), log)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// ID returns the participant id stored by Middleware, or "".
func ID(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}
