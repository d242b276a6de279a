package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/log"
)

type ctxKey struct{}

func withSession(ctx context.Context, sess auth.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

func sessionFrom(ctx context.Context) auth.Session {
	sess, _ := ctx.Value(ctxKey{}).(auth.Session)
	return sess
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// requireSession rejects requests without a live bearer token and tags the
// request logger with the user id.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.deps.Auth.Authenticate(bearerToken(r))
		if !ok {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		ctx := withSession(r.Context(), sess)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, sess.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userKey(r *http.Request) string {
	return "user:" + strconv.FormatInt(sessionFrom(r.Context()).UserID, 10)
}
