// middleware/group_auth.go
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AdminClaims are the claims carried by API tokens.
type AdminClaims struct {
	jwt.RegisteredClaims
	Groups   []string `json:"groups"`
	Username string   `json:"username"`
}

// GroupAuthMiddleware requires a bearer token signed with secret (HS256)
// whose groups include at least one of requiredGroups.
func GroupAuthMiddleware(secret string, requiredGroups []string, log *zap.Logger) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			log.Warn("No Authorization token provided", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := parseToken(tokenString, key)
		if err != nil {
			log.Warn("Error parsing token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if !isUserInGroups(claims, requiredGroups) {
			log.Warn("User does not have the required groups",
				zap.String("sub", claims.Subject),
				zap.Strings("groups", claims.Groups))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("requestingUser", claims.Username)
		c.Next()
	}
}

func parseToken(tokenString string, key []byte) (*AdminClaims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token or wrong claims type")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func isUserInGroups(claims *AdminClaims, requiredGroups []string) bool {
	for _, group := range requiredGroups {
		if slices.Contains(claims.Groups, group) {
			return true
		}
	}
	return false
}
