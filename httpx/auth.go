package httpx

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/mediator/behavior"
	"github.com/kbukum/mediator/errors"
)

// BearerAuth validates HS256 bearer tokens and stores the caller as
// behavior.Claims in the request context.
func BearerAuth(cfg JWTConfig) gin.HandlerFunc {
	if cfg.RolesClaim == "" {
		cfg.RolesClaim = "roles"
	}
	parser := gojwt.NewParser(parserOptions(cfg)...)
	key := []byte(cfg.Secret)

	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			if cfg.Optional {
				c.Next()
				return
			}
			RespondWithError(c, errors.Unauthorized("Authorization header required."))
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			RespondWithError(c, errors.Unauthorized("Invalid authorization header format."))
			return
		}

		mapClaims := gojwt.MapClaims{}
		_, err := parser.ParseWithClaims(token, mapClaims, func(*gojwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			RespondWithError(c, errors.InvalidToken().WithCause(err))
			return
		}

		claims, err := toClaims(mapClaims, cfg.RolesClaim)
		if err != nil {
			RespondWithError(c, errors.InvalidToken().WithCause(err))
			return
		}
		c.Set("subject", claims.Subject)
		c.Request = c.Request.WithContext(behavior.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func parserOptions(cfg JWTConfig) []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, gojwt.WithLeeway(cfg.Leeway))
	}
	return opts
}

// toClaims accepts roles as a JSON array of strings or a space separated
// string (OAuth "scope" style).
func toClaims(mc gojwt.MapClaims, rolesClaim string) (*behavior.Claims, error) {
	subject, err := mc.GetSubject()
	if err != nil {
		return nil, err
	}

	var roles []string
	switch v := mc[rolesClaim].(type) {
	case nil:
	case string:
		roles = strings.Fields(v)
	case []interface{}:
		for _, r := range v {
			s, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("claim %q: role %v is not a string", rolesClaim, r)
			}
			roles = append(roles, s)
		}
	default:
		return nil, fmt.Errorf("claim %q: unsupported type %T", rolesClaim, v)
	}

	values := make(map[string]any, len(mc))
	for k, v := range mc {
		values[k] = v
	}
	return &behavior.Claims{Subject: subject, Roles: roles, Values: values}, nil
}
