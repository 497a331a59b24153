package routes

import (
	"net/http"
	"time"

	"docqa-platform/middleware"
	"docqa-platform/services"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupAdminRoutes(
	router *gin.Engine,
	db *mongo.Database,
	documents *services.DocumentStore,
	history *services.QAStore,
	authMW *middleware.AuthMiddleware,
	roleMW *middleware.RoleMiddleware,
) {
	admin := router.Group("/api/admin")
	admin.Use(authMW.RequireAuth())
	admin.Use(roleMW.AdminGuard())

	users := db.Collection("users")

	// Platform-wide counters: user total, documents by status, questions
	// by answer kind
	admin.GET("/stats", func(c *gin.Context) {
		ctx := c.Request.Context()

		userCount, err := users.CountDocuments(ctx, bson.M{})
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to count users", nil)
			return
		}

		docCounts, err := documents.CountByStatus(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to count documents", nil)
			return
		}
		var docTotal int64
		for _, n := range docCounts {
			docTotal += n
		}

		kindCounts, err := history.CountByKind(ctx)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to count questions", nil)
			return
		}
		var questionTotal int64
		for _, n := range kindCounts {
			questionTotal += n
		}

		c.JSON(http.StatusOK, gin.H{
			"users": userCount,
			"documents": gin.H{
				"total":     docTotal,
				"by_status": docCounts,
			},
			"questions": gin.H{
				"total":   questionTotal,
				"by_kind": kindCounts,
			},
			"timestamp": time.Now(),
		})
	})
}
