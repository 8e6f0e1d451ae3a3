package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// errorBody is the JSON error envelope for rejected requests.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Middleware creates an Echo middleware that authenticates every request
// and places the resulting Session in the request context.
//
// The middleware:
//  1. Extracts the bearer token or API key from the request headers
//  2. Validates the credential (delegated verification or key registry)
//  3. Resolves the identity's scopes and builds the Session
//  4. Returns 401 with a structured error when validation fails
//
// Authorization (scope checking) happens per operation in the dispatcher,
// not here: the middleware establishes who is calling, the gate decides
// what they may do.
func Middleware(validator Validator, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			creds := CredentialsFromHeader(req.Header)

			identity, err := validator.Validate(req.Context(), creds)
			if err != nil {
				code := ErrorCode(err)
				if code == "" {
					code = "invalid_credential"
				}
				logger.Warn("request rejected",
					zap.String("code", code),
					zap.String("path", req.URL.Path),
				)
				return c.JSON(http.StatusUnauthorized, errorBody{
					Error: errorDetail{Code: code, Message: err.Error()},
				})
			}

			session := NewSession(identity, ResolveScopes(identity), time.Now().UTC())
			logger.Debug("request authenticated",
				zap.String("session_id", session.ID),
				zap.String("subject", identity.Subject),
				zap.String("kind", string(identity.Kind)),
			)
			c.SetRequest(req.WithContext(WithSession(req.Context(), session)))
			return next(c)
		}
	}
}
