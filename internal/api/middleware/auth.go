package middleware

import (
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/achievement-minter/internal/api/shared/errors"
	"github.com/feral-file/achievement-minter/internal/logger"
)

// OPERATOR_KEY is the gin context key holding the authenticated *Operator
const OPERATOR_KEY = "operator"

const (
	AuthMethodJWT    = "jwt"
	AuthMethodAPIKey = "apikey"

	// defaultAPIKeyName names API keys configured without a "name=" prefix
	defaultAPIKeyName = "default"
	jwtLeeway         = 30 * time.Second
)

// AuthConfig holds the operator authentication settings
type AuthConfig struct {
	JWTPublicKey string // RSA public key in PEM format
	// OperatorRole, when set, must be listed in the token's "roles" claim
	OperatorRole string
	// APIKeys holds "name=secret" entries; a bare secret is named "default"
	APIKeys []string
}

// Operator is the caller of the minting control surface
type Operator struct {
	Method  string // AuthMethodJWT or AuthMethodAPIKey
	Subject string // JWT "sub" or the API key name
}

// String identifies the operator in logs and run summaries
func (o Operator) String() string {
	return o.Method + ":" + o.Subject
}

// operatorClaims are the JWT claims issued to operators
type operatorClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

type apiKey struct {
	name   string
	secret []byte
}

// authenticator verifies operator credentials. The public key is parsed once.
type authenticator struct {
	publicKey *rsa.PublicKey
	keyErr    error
	role      string
	apiKeys   []apiKey
	parser    *jwt.Parser
}

func newAuthenticator(cfg AuthConfig) *authenticator {
	a := &authenticator{
		role: cfg.OperatorRole,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(jwtLeeway),
		),
	}

	if cfg.JWTPublicKey == "" {
		a.keyErr = errors.New("JWT public key not configured")
	} else {
		a.publicKey, a.keyErr = parseRSAPublicKey(cfg.JWTPublicKey)
		if a.keyErr != nil {
			a.keyErr = fmt.Errorf("failed to parse RSA public key: %w", a.keyErr)
		}
	}

	for _, entry := range cfg.APIKeys {
		name, secret, found := strings.Cut(entry, "=")
		if !found {
			name, secret = defaultAPIKeyName, entry
		}
		if secret == "" {
			continue
		}
		a.apiKeys = append(a.apiKeys, apiKey{name: name, secret: []byte(secret)})
	}

	return a
}

// Authenticate validates an Authorization header and returns the calling operator
func Authenticate(authHeader string, cfg AuthConfig) (*Operator, error) {
	return newAuthenticator(cfg).authenticate(authHeader)
}

func (a *authenticator) authenticate(authHeader string) (*Operator, error) {
	if authHeader == "" {
		return nil, errors.New("missing Authorization header")
	}

	scheme, credentials, found := strings.Cut(authHeader, " ")
	if !found || credentials == "" {
		return nil, errors.New("invalid Authorization header format")
	}

	switch strings.ToLower(scheme) {
	case "bearer":
		return a.operatorFromJWT(credentials)
	case "apikey":
		return a.operatorFromAPIKey(credentials)
	default:
		return nil, fmt.Errorf("unsupported authorization type: %s", scheme)
	}
}

// operatorFromJWT verifies the token signature, expiry and operator role
func (a *authenticator) operatorFromJWT(tokenString string) (*Operator, error) {
	if a.keyErr != nil {
		return nil, a.keyErr
	}

	claims := &operatorClaims{}
	if _, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.publicKey, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	// Run summaries record who triggered them
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if a.role != "" && !slices.Contains(claims.Roles, a.role) {
		return nil, fmt.Errorf("token lacks role %q", a.role)
	}

	return &Operator{Method: AuthMethodJWT, Subject: claims.Subject}, nil
}

// operatorFromAPIKey matches the key in constant time against every configured key
func (a *authenticator) operatorFromAPIKey(secret string) (*Operator, error) {
	if len(a.apiKeys) == 0 {
		return nil, errors.New("no API keys configured")
	}

	var match *apiKey
	for i := range a.apiKeys {
		if subtle.ConstantTimeCompare(a.apiKeys[i].secret, []byte(secret)) == 1 {
			match = &a.apiKeys[i]
		}
	}
	if match == nil {
		return nil, errors.New("invalid API key")
	}

	return &Operator{Method: AuthMethodAPIKey, Subject: match.name}, nil
}

// Auth returns a gin middleware that admits operators holding a JWT or an API key
func Auth(cfg AuthConfig) gin.HandlerFunc {
	a := newAuthenticator(cfg)
	if a.keyErr != nil && cfg.JWTPublicKey != "" {
		logger.Warn("JWT authentication disabled", zap.Error(a.keyErr))
	}

	return func(c *gin.Context) {
		operator, err := a.authenticate(c.GetHeader("Authorization"))
		if err != nil {
			logger.WarnCtx(c.Request.Context(), "Operator authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			apiErr := apierrors.NewUnauthorizedError("Authentication failed", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiErr.Wrap())
			return
		}

		c.Set(OPERATOR_KEY, operator)
		logger.DebugCtx(c.Request.Context(), "Operator authenticated",
			zap.String("operator", operator.String()),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()
	}
}

// OperatorFromContext returns the operator set by Auth, if any
func OperatorFromContext(c *gin.Context) (*Operator, bool) {
	v, ok := c.Get(OPERATOR_KEY)
	if !ok {
		return nil, false
	}
	operator, ok := v.(*Operator)
	return operator, ok
}

// parseRSAPublicKey parses an RSA public key in PKIX or PKCS1 PEM form
func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}
	return rsaKey, nil
}
