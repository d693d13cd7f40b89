package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ecochef/internal/auth"
	"ecochef/internal/locale"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const principalKey ctxKey = iota

// requestLogger logs every request and feeds the HTTP metrics.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		if s.prom != nil {
			s.prom.ObserveHTTP(r.Method, route, status, time.Since(start))
		}
		s.log.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

// principal resolves who is calling. A bearer token must verify; without one
// the caller is a guest identified by the session header, which is minted
// when missing and echoed back.
func (s *Server) principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p auth.Principal
		if header := r.Header.Get("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || s.verifier == nil {
				s.writeError(w, r, &auth.AuthError{Err: errors.New("bearer tokens are not accepted")})
				return
			}
			id, err := s.verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			p = *id
		} else {
			sid := r.Header.Get(SessionHeader)
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
			}
			w.Header().Set(SessionHeader, sid)
			p = auth.Guest{SessionID: sid}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func principalFrom(r *http.Request) auth.Principal {
	p, _ := r.Context().Value(principalKey).(auth.Principal)
	return p
}

// languageOf picks the response language: ?lang= first, then Accept-Language.
func languageOf(r *http.Request) locale.Language {
	if q := r.URL.Query().Get("lang"); q != "" {
		if l, err := locale.Parse(q); err == nil {
			return l
		}
	}
	return locale.FromAcceptLanguage(r.Header.Get("Accept-Language"))
}
