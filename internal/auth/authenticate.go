package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/models"
)

const (
	// AuthClientKey holds the name of the authenticated client in the context.
	AuthClientKey = "authClient"
	// SchemeName is the security scheme protected operations refer to.
	SchemeName = "apiKeyAuth"
)

// Config is the security scheme configuration for the API.
var Config = map[string]*huma.SecurityScheme{
	SchemeName: {
		Type:   "http",
		Scheme: "bearer",
		In:     "header",
		Name:   "Authorization",
	},
}

// Security is attached to operations that require the API key.
var Security = []map[string][]string{{SchemeName: {}}}

func requiresScheme(ctx huma.Context, scheme string) bool {
	for _, opScheme := range ctx.Operation().Security {
		if _, ok := opScheme[scheme]; ok {
			return true
		}
	}
	return false
}

// AuthTermination rejects requests to protected operations that no
// preceding auth middleware accepted. It has to run last in the auth chain.
func AuthTermination(api huma.API, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		isAuthRequired := false
		for _, securityScheme := range ctx.Operation().Security {
			if len(securityScheme) > 0 {
				isAuthRequired = true
				break
			}
		}
		if !isAuthRequired {
			next(ctx)
			return
		}

		if _, ok := ctx.Context().Value(AuthClientKey).(string); ok {
			next(ctx)
			return
		}
		logger.Debug("authentication failed", zap.String("operation", ctx.Operation().OperationID))
		_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "Authentication failed. Perhaps a missing or incorrect API key?")
	}
}

// APIKeyAuth accepts requests carrying the configured API key as a bearer
// token. Without a configured key every request is accepted.
func APIKeyAuth(api huma.API, options *models.Options) func(ctx huma.Context, next func(huma.Context)) {
	expected := hashKey(options.APIKey)
	return func(ctx huma.Context, next func(huma.Context)) {
		if !requiresScheme(ctx, SchemeName) {
			next(ctx)
			return
		}
		if options.APIKey == "" {
			next(huma.WithValue(ctx, AuthClientKey, "anonymous"))
			return
		}

		header := ctx.Header("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if found && keyIsValid(token, expected) {
			next(huma.WithValue(ctx, AuthClientKey, "client"))
			return
		}
		next(ctx)
	}
}

func hashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// keyIsValid compares a presented key against a stored hash in constant time.
func keyIsValid(rawKey string, storedHash string) bool {
	if rawKey == "" || storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(hashKey(rawKey))) == 1
}

// CORSMiddleware handles CORS for browser clients.
func CORSMiddleware(api huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		for key, value := range map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
			"Access-Control-Allow-Headers": "Accept, Authorization, Content-Type, Content-Disposition, Origin, X-Requested-With",
		} {
			ctx.SetHeader(key, value)
		}

		if ctx.Method() == http.MethodOptions {
			ctx.SetStatus(http.StatusOK)
			return
		}
		next(ctx)
	}
}
