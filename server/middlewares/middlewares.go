package middlewares

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// jwtSecret signs and verifies session tokens. Before any middleware is
	// used, make sure Setup has been called.
	jwtSecret []byte
)

const sessionTTL = 24 * time.Hour

// Claims is the session token payload. Username doubles as the stable user
// handle the handlers authorize against.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Setup initializes all package scoped variables that are needed to perform
// middleware functionalities. This function must be called before any
// middleware is used.
func Setup() {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		panic("JWT_SECRET is not configured")
	}
}

// IssueSessionToken creates a signed session token for the given username.
// Called after a successful login or code activation.
func IssueSessionToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// Session middleware fetches the session token from the Authorization header
// (falling back to the "token" query param), validates it, and adds a new
// header field "sub" storing the authenticated username. It aborts with 401
// on token not provided or token invalid (wrong token or expired).
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			raw = c.Query("token")
		}
		raw = strings.TrimPrefix(raw, "Bearer ")

		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "empty session token",
			})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid session token",
			})
			c.Abort()
			return
		}

		// Successfully validated the session token, stamp the username into
		// the header field "sub" for downstream handlers.
		c.Request.Header.Del("token")
		c.Request.Header.Set("sub", claims.Username)

		c.Next()
	}
}
