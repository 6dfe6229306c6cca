package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/logging"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	UserContextKey   = "current_user"
	ClaimsContextKey = "token_claims"
)

var ErrTokenRevoked = errors.New("token revoked")

// UserLoader resolves the account behind a session or token
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// RevocationChecker reports whether a token id was revoked
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims represents JWT claims
type Claims struct {
	UserID int64           `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies bearer tokens for API clients
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationChecker
	now     func() time.Time
}

// NewTokens creates a token issuer. revoked may be nil when Redis is off.
func NewTokens(secret string, ttl time.Duration, revoked RevocationChecker) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}
}

// Issue generates a JWT token for a user
func (t *Tokens) Issue(user *models.User) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates a token and its revocation state
func (t *Tokens) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	if t.revoked != nil && claims.ID != "" {
		revoked, err := t.revoked.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// SessionAuth loads the logged-in user from the session cookie. Sessions of
// disabled or deleted accounts are dropped.
func SessionAuth(users UserLoader, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionUserID(c)
		if id == 0 {
			c.Next()
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		if err != nil || !user.CanSignIn() {
			if err != nil {
				logger.WithUserID(id).WithError(err).Debug("Dropping session for unknown user")
			}
			EndSession(c)
			c.Next()
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// BearerAuth authenticates API clients presenting a token. Requests without
// an Authorization header pass through untouched.
func BearerAuth(tokens *Tokens, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			return
		}

		claims, err := tokens.Parse(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), claims.UserID)
		if err != nil || !user.CanSignIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Set(UserContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// TokenClaims returns the verified bearer claims, if the request used a token
func TokenClaims(c *gin.Context) *Claims {
	v, ok := c.Get(ClaimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// RequireLogin redirects anonymous visitors to the login page
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			FlashRedirect(c, FlashWarning, "Silakan login terlebih dahulu!", "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin limits a route group to administrators
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			FlashRedirect(c, FlashWarning, "Silakan login terlebih dahulu!", "/login")
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			FlashRedirect(c, FlashDanger, "Akses ditolak! Halaman untuk admin saja.", "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAPIUser rejects unauthenticated JSON requests
func RequireAPIUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireAPIAdmin rejects JSON requests from non-admins
func RequireAPIAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
