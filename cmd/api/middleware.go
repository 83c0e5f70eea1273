package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/payments"
	"storefront/internal/session"
)

const sessionHeader = "X-Checkout-Session"

type ctxKey string

const (
	sessionCtx ctxKey = "session"
	intentCtx  ctxKey = "intent"
)

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// read the auth header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			// parse it -> get the base64
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			// decode it
			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			// check the credentials
			username := app.config.auth.basic.user
			hash := app.config.auth.basic.pass

			creds := strings.SplitN(string(decoded), ":", 2)
			if username == "" || hash == "" || len(creds) != 2 || creds[0] != username {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds[1])); err != nil {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			if allow, retryAfter := app.rateLimiter.Allow(clientIP(r)); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SessionIntentMiddleware only lets the checkout session that created an
// intent act on it. The stored intent and the session claims are put on the
// request context.
func (app *application) SessionIntentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(sessionHeader))
		if token == "" {
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("%s header is missing", sessionHeader))
			return
		}

		claims, err := app.sessions.Parse(token)
		if err != nil {
			app.unauthorizedErrorResponse(w, r, err)
			return
		}

		intentID := chi.URLParam(r, "intentID")
		in, err := app.payments.Local(r.Context(), intentID)
		if err != nil {
			if errors.Is(err, payments.ErrNotFound) {
				app.notFoundResponse(w, r, err)
				return
			}
			app.internalServerError(w, r, err)
			return
		}

		if in.Metadata["session"] != claims.SessionID() {
			app.forbiddenResponse(w, r, fmt.Errorf("payment intent belongs to another checkout session"))
			return
		}

		ctx := context.WithValue(r.Context(), sessionCtx, claims)
		ctx = context.WithValue(ctx, intentCtx, in)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP is the remote address without its port. RealIP has already
// applied any forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func getSessionFromContext(r *http.Request) *session.Claims {
	claims, _ := r.Context().Value(sessionCtx).(*session.Claims)
	return claims
}

func getIntentFromContext(r *http.Request) *payments.Intent {
	in, _ := r.Context().Value(intentCtx).(*payments.Intent)
	return in
}
