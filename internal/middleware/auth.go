package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"anoa.com/housecup/internal/entity"
	"anoa.com/housecup/internal/logger"
	userDto "anoa.com/housecup/internal/modules/user/dto"
	userService "anoa.com/housecup/internal/modules/user/service"
	"anoa.com/housecup/pkg/response"
)

// Claims are the identity provider's access token claims. The subject is the
// user's UUID.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	House    string `json:"house"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	users  userService.UserService
	secret []byte
	issuer string
}

func NewAuthMiddleware(users userService.UserService, secret, issuer string) *AuthMiddleware {
	return &AuthMiddleware{
		users:  users,
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (m *AuthMiddleware) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// RequireAuth verifies the bearer token and provisions the local user on
// first sight. It sets "user_id" and "user" on the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims, err := m.parse(tokenString)
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := m.users.Provision(c.Request.Context(), userDto.Identity{
			Subject:  claims.Subject,
			Username: claims.Username,
			Email:    claims.Email,
			House:    entity.House(strings.ToLower(claims.House)),
			Role:     claims.Role,
		})
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
			return
		}

		c.Set("user_id", user.ID.String())
		c.Set("user", user)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		user, ok := value.(*entity.User)
		if !ok || user.Role.Name != entity.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}
