package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
	apperrors "github.com/alderburg/Teste-sub001/pkg/errors"
)

// Error codes returned by the middleware
const (
	CodeMissingAuthHeader = "MISSING_AUTH_HEADER"
	CodeInvalidAuthFormat = "INVALID_AUTH_FORMAT"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeInvalidClaims     = "INVALID_CLAIMS"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Logger    *zap.Logger
	SkipPaths []string // Paths to skip JWT validation
}

// JWTMiddleware validates the session token and stores the session in the
// request context. The raw token is kept so it can be forwarded to the
// billing backend.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return unauthorized(c, "Authorization header required", CodeMissingAuthHeader)
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return unauthorized(c, "Invalid authorization header format. Expected: Bearer <token>", CodeInvalidAuthFormat)
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(config.Secret), nil
			})
			if err != nil {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return unauthorized(c, "Invalid or expired token", CodeInvalidToken)
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				return unauthorized(c, "Invalid token claims", CodeInvalidClaims)
			}
			accountID, err := claims.GetSubject()
			if err != nil || accountID == "" {
				config.Logger.Warn("Token without subject",
					zap.String("path", path))
				return unauthorized(c, "Invalid token claims", CodeInvalidClaims)
			}
			email, _ := claims["email"].(string)

			session := model.Session{
				AccountID: accountID,
				Token:     tokenString,
				Email:     email,
			}
			c.SetRequest(c.Request().WithContext(model.ContextWithSession(c.Request().Context(), session)))
			c.Set("account_id", accountID)

			config.Logger.Debug("Session authenticated",
				zap.String("account_id", accountID),
				zap.String("path", path))

			return next(c)
		}
	}
}

// SessionFromContext returns the authenticated session of the request
func SessionFromContext(c echo.Context) (model.Session, error) {
	session, ok := model.SessionFromContext(c.Request().Context())
	if !ok || session.AccountID == "" {
		return model.Session{}, fmt.Errorf("no authenticated session found in context")
	}
	return session, nil
}

func unauthorized(c echo.Context, message, code string) error {
	return c.JSON(http.StatusUnauthorized, apperrors.Envelope{Error: apperrors.EnvelopeBody{
		Message: message,
		Code:    code,
	}})
}
