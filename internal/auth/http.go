package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"MiniPOS/pkg/kit"
)

type Server struct {
	Log  *zap.Logger
	Gate *PinGate
	JWT  *TokenMaker
	TTL  time.Duration
}

type loginReq struct {
	PIN string `json:"pin"`
}

type loginResp struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Server) LoginHandler() http.HandlerFunc { return s.handleLogin }

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if err := s.Gate.Verify(req.PIN); err != nil {
		if s.Log != nil {
			s.Log.Warn("admin login rejected", zap.String("remote", r.RemoteAddr))
		}
		kit.WriteError(w, r, http.StatusUnauthorized, ErrInvalidPIN.Error(), nil)
		return
	}

	tok, exp, err := s.JWT.New(RoleAdmin, s.TTL)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, ExpiresAt: exp.UTC()})
}

type ctxKey string

const claimsKey ctxKey = "admin_claims"

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := jwt.Parse(raw)
			if err != nil || claims.Role != RoleAdmin {
				kit.WriteError(w, r, http.StatusUnauthorized, ErrInvalidToken.Error(), nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
