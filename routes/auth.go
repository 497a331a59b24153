package routes

import (
	"net/http"
	"time"

	"docqa-platform/internal/auth"
	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/middleware"
	"docqa-platform/models"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database, rdb *redis.Client, authMW *middleware.AuthMiddleware) {
	group := router.Group("/api/auth")
	users := db.Collection("users")

	// Register endpoint
	group.POST("/register", func(c *gin.Context) {
		var req models.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		// Check if username already exists
		var existing models.User
		if err := users.FindOne(c.Request.Context(), bson.M{"username": req.Username}).Decode(&existing); err == nil {
			utils.RespondWithConflict(c, "Username already exists", nil)
			return
		}

		hashedPassword, err := utils.HashPassword(req.Password, cfg.BcryptCost)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to process password", nil)
			return
		}

		user := models.User{
			Username:     req.Username,
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hashedPassword,
			Role:         models.RoleUser,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		result, err := users.InsertOne(c.Request.Context(), user)
		if err != nil {
			// The unique index can still reject a concurrent registration
			if mongo.IsDuplicateKeyError(err) {
				utils.RespondWithConflict(c, "Username already exists", nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to create user", nil)
			return
		}
		user.ID = result.InsertedID.(primitive.ObjectID)

		pair, err := auth.IssueTokenPair(user.ID.Hex(), user.Role, rdb)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		middleware.SetAuthCookies(c, cfg, pair)

		c.JSON(http.StatusCreated, models.TokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			AccessExp:    pair.AccessExp,
			RefreshExp:   pair.RefreshExp,
			User:         user.Info(),
		})
	})

	// Login endpoint
	group.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := users.FindOne(c.Request.Context(), bson.M{"username": req.Username}).Decode(&user); err != nil {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		if !utils.CheckPassword(req.Password, user.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		pair, err := auth.IssueTokenPair(user.ID.Hex(), user.Role, rdb)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		middleware.SetAuthCookies(c, cfg, pair)

		c.JSON(http.StatusOK, models.TokenPairResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			AccessExp:    pair.AccessExp,
			RefreshExp:   pair.RefreshExp,
			User:         user.Info(),
		})
	})

	// Refresh endpoint rotates the pair: the presented refresh token is
	// revoked and a new pair is issued.
	group.POST("/refresh", func(c *gin.Context) {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)

		tokenString := req.RefreshToken
		if tokenString == "" {
			if cookie, err := c.Cookie("refresh_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			utils.RespondWithUnauthorized(c, "Refresh token is required")
			return
		}

		claims, err := auth.ValidateRefreshToken(tokenString, rdb)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid or expired refresh token")
			return
		}

		if err := auth.RevokeToken(claims.ID, true, rdb); err != nil {
			logger.Warn("failed to revoke rotated refresh token", "error", err)
		}

		pair, err := auth.IssueTokenPair(claims.UserID, claims.Role, rdb)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue tokens", nil)
			return
		}
		middleware.SetAuthCookies(c, cfg, pair)

		c.JSON(http.StatusOK, pair)
	})

	// Logout revokes whatever tokens the request carries and clears cookies.
	// It is idempotent: calling it without valid tokens still succeeds.
	group.POST("/logout", func(c *gin.Context) {
		accessToken := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if accessToken == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				accessToken = cookie
			}
		}
		if accessToken != "" {
			if claims, err := auth.ValidateAccessToken(accessToken, rdb); err == nil {
				if err := auth.RevokeToken(claims.ID, false, rdb); err != nil {
					logger.Warn("failed to revoke access token on logout", "error", err)
				}
			}
		}

		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		refreshToken := req.RefreshToken
		if refreshToken == "" {
			if cookie, err := c.Cookie("refresh_token"); err == nil {
				refreshToken = cookie
			}
		}
		if refreshToken != "" {
			if claims, err := auth.ValidateRefreshToken(refreshToken, rdb); err == nil {
				if err := auth.RevokeToken(claims.ID, true, rdb); err != nil {
					logger.Warn("failed to revoke refresh token on logout", "error", err)
				}
			}
		}

		middleware.ClearAuthCookies(c, cfg)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	})

	// Current user endpoint
	group.GET("/me", authMW.RequireAuth(), func(c *gin.Context) {
		userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid user identity")
			return
		}

		var user models.User
		if err := users.FindOne(c.Request.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
			utils.RespondWithNotFound(c, "User not found")
			return
		}

		c.JSON(http.StatusOK, user.Info())
	})
}
