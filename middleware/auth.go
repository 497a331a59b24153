package middleware

import (
	"net/http"

	"docqa-platform/internal/auth"
	"docqa-platform/internal/config"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type AuthMiddleware struct {
	config *config.Config
	rdb    *redis.Client
}

func NewAuthMiddleware(cfg *config.Config, rdb *redis.Client) *AuthMiddleware {
	return &AuthMiddleware{
		config: cfg,
		rdb:    rdb,
	}
}

func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		// Try to get access token from Authorization header
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			tokenString = utils.ExtractTokenFromHeader(authHeader)
		}

		// If no header token, try access_token cookie
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error_code": "unauthorized",
				"message":    "Authentication token is required",
			})
			c.Abort()
			return
		}

		claims, err := auth.ValidateAccessToken(tokenString, a.rdb)
		if err != nil {
			// Try to auto-refresh using refresh token
			if refreshToken, cookieErr := c.Cookie("refresh_token"); cookieErr == nil && refreshToken != "" {
				refreshClaims, refreshErr := auth.ValidateRefreshToken(refreshToken, a.rdb)
				if refreshErr == nil {
					// Valid refresh token found, rotate the pair
					if revokeErr := auth.RevokeToken(refreshClaims.ID, true, a.rdb); revokeErr != nil {
						_ = revokeErr
					}

					tokenPair, issueErr := auth.IssueTokenPair(refreshClaims.UserID, refreshClaims.Role, a.rdb)
					if issueErr == nil {
						SetAuthCookies(c, a.config, tokenPair)

						freshClaims, valErr := auth.ValidateAccessToken(tokenPair.AccessToken, a.rdb)
						if valErr == nil {
							claims = freshClaims
						}
					}
				}
			}

			// If still no valid claims after refresh attempt
			if claims == nil {
				errorCode := "session_expired"
				if refreshToken, cookieErr := c.Cookie("refresh_token"); cookieErr == nil && refreshToken != "" {
					errorCode = "refresh_token_expired"
				}

				c.JSON(http.StatusUnauthorized, gin.H{
					"error_code": errorCode,
					"message":    "Your session has expired. Please log in again.",
					"details":    gin.H{"error": err.Error()},
				})
				c.Abort()
				return
			}
		}

		// Store user info in context
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("claims", claims)

		c.Next()
	})
}

func (a *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			tokenString = utils.ExtractTokenFromHeader(authHeader)
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString != "" {
			claims, err := auth.ValidateAccessToken(tokenString, a.rdb)
			if err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("role", claims.Role)
				c.Set("claims", claims)
				c.Set("authenticated", true)
			}
		}

		c.Next()
	})
}

// SetAuthCookies writes the token pair as HttpOnly cookies. Secure is only
// set in release mode so local HTTP development keeps working.
func SetAuthCookies(c *gin.Context, cfg *config.Config, pair *auth.TokenPair) {
	secure := cfg.GinMode == "release"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", pair.AccessToken, int(auth.AccessTokenTTL.Seconds()), "/", "", secure, true)
	c.SetCookie("refresh_token", pair.RefreshToken, int(auth.RefreshTokenTTL.Seconds()), "/", "", secure, true)
}

// ClearAuthCookies removes both auth cookies.
func ClearAuthCookies(c *gin.Context, cfg *config.Config) {
	secure := cfg.GinMode == "release"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// Helper function to check if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}

// Helper function to get user ID from context
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// Helper function to get role from context
func GetRole(c *gin.Context) string {
	if role, exists := c.Get("role"); exists {
		if r, ok := role.(string); ok {
			return r
		}
	}
	return ""
}
