package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"scr-dashboard/internal/config"
	apperrors "scr-dashboard/internal/errors"
	"scr-dashboard/internal/observability"
)

// CookieName is where the backend's web client keeps the access token.
const CookieName = "sb-access-token"

var (
	ErrMissingToken = errors.New("missing access token")
	ErrInvalidToken = errors.New("invalid access token")
	ErrExpiredToken = errors.New("access token has expired")
)

// Claims are the parts of a backend access token the dashboard reads.
type Claims struct {
	jwt.RegisteredClaims
	Email       string      `json:"email"`
	AppMetadata AppMetadata `json:"app_metadata"`
}

type AppMetadata struct {
	Role string `json:"role"`
}

type Session struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Verifier validates HS256 access tokens issued by the backend.
type Verifier struct {
	secret    []byte
	adminRole string
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		secret:    []byte(cfg.JWTSecret),
		adminRole: cfg.AdminRole,
	}
}

func (v *Verifier) Verify(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserID:  claims.Subject,
		Email:   claims.Email,
		IsAdmin: v.adminRole != "" && claims.AppMetadata.Role == v.adminRole,
	}, nil
}

// TokenFromRequest reads the bearer token, falling back to the cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", ErrInvalidToken
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrMissingToken
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}

// RequireAdmin rejects requests without a valid token (401) or whose
// user is not an admin (403).
func RequireAdmin(v *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := observability.GetRequestID(r.Context())

			token, err := TokenFromRequest(r)
			if err != nil {
				apperrors.WriteError(w, logger, apperrors.UnauthorizedWrap(err, "Authentication required"), requestID)
				return
			}

			session, err := v.Verify(token)
			if err != nil {
				apperrors.WriteError(w, logger, apperrors.UnauthorizedWrap(err, "Invalid or expired session"), requestID)
				return
			}

			if !session.IsAdmin {
				logger.Warn("non-admin access denied",
					"user_id", session.UserID,
					"path", r.URL.Path,
					"request_id", requestID,
				)
				apperrors.WriteError(w, logger, apperrors.Forbidden("Admin access required"), requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
