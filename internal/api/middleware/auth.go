package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/domain/identity"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/apperror"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
)

const actorKey = "actor"

// Claims はアクセストークンのペイロード
type Claims struct {
	UserID string        `json:"userId"`
	Role   identity.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth は Authorization: Bearer のアクセストークン（HS256）を検証し、
// 呼び出し元を echo.Context に格納する
func JWTAuth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return apperror.Unauthorized("アクセストークンが必要です", nil)
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
				return key, nil
			}); err != nil {
				return apperror.Unauthorized("アクセストークンが無効か期限切れです", err)
			}
			if claims.UserID == "" || !claims.Role.IsValid() {
				return apperror.Unauthorized("アクセストークンが無効か期限切れです", nil)
			}

			actor := identity.Actor{UserID: claims.UserID, Role: claims.Role}
			c.Set(actorKey, actor)

			req := c.Request()
			l := logger.FromContext(req.Context()).With(zap.String("user_id", actor.UserID))
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), l)))
			return next(c)
		}
	}
}

// RequireRole は JWTAuth の後に置き、指定のいずれかの権限を要求する
func RequireRole(roles ...identity.Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return apperror.Unauthorized("認証が必要です", nil)
			}
			if !actor.HasRole(roles...) {
				return apperror.Forbidden(fmt.Sprintf("この操作には %s 権限が必要です", strings.Join(names, ", ")), nil)
			}
			return next(c)
		}
	}
}

// ActorFrom は JWTAuth が格納した呼び出し元を返す
func ActorFrom(c echo.Context) (identity.Actor, bool) {
	actor, ok := c.Get(actorKey).(identity.Actor)
	return actor, ok
}

// IssueToken は呼び出し元のアクセストークンを発行する
func IssueToken(secret string, actor identity.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: actor.UserID,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
