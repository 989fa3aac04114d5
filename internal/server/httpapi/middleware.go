package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/hoaboard/internal/common"
	"github.com/dmitrijs2005/hoaboard/internal/server/auth"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// requireSession extracts and verifies the session cookie, placing the
// authenticated user ID into the request context. A missing cookie yields
// NoAuthenticationCookie; a bad or expired token yields AccessTokenInvalid.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			s.writeError(w, r, common.ErrNoAuthCookie)
			return
		}

		userID, err := auth.GetUserIDFromToken(cookie.Value, s.sessionSecret)
		if err != nil {
			s.writeError(w, r, common.ErrAccessTokenInvalid)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUserID returns the user ID placed by requireSession.
func currentUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// setSessionCookie issues the session cookie for a logged-in user.
func (s *Server) setSessionCookie(w http.ResponseWriter, userID int64) error {
	token, err := auth.GenerateToken(userID, s.sessionSecret, s.sessionValidity)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessionValidity.Seconds()),
	})
	return nil
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
