package routes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"docqa-platform/internal/config"
	"docqa-platform/middleware"
	"docqa-platform/models"
	"docqa-platform/services"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupQARoutes(router *gin.Engine, cfg *config.Config, qa *services.QAService, exports *services.ExportService, rdb *redis.Client, authMW *middleware.AuthMiddleware) {
	api := router.Group("/api")
	api.Use(authMW.RequireAuth())

	// Ask a question against the latest completed document, or an explicit
	// one when document_id is set
	api.POST("/ask", middleware.UserRateLimit(rdb, cfg, cfg.QuestionRateLimit), func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "empty_question", services.AnswerEmptyQuestion, nil)
			return
		}

		resp, err := qa.Ask(c.Request.Context(), userID, &req)
		if err != nil {
			respondAskError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	})

	// Question history, newest first
	api.GET("/history", func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

		exchanges, err := qa.History(c.Request.Context(), userID, c.Query("document_id"), limit)
		if err != nil {
			if errors.Is(err, services.ErrInvalidDocumentID) {
				utils.RespondWithBadRequest(c, "Invalid document ID", nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to fetch history", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"exchanges": exchanges,
			"count":     len(exchanges),
		})
	})

	// Download the question history as a workbook, JSON, or a ZIP bundle
	api.GET("/history/export", func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req services.ExportRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid export parameters", gin.H{"error": err.Error()})
			return
		}

		data, err := exports.BuildExport(c.Request.Context(), userID, &req)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export", nil)
			return
		}

		if err := exports.StreamExport(c, data); err != nil {
			utils.RespondWithInternalError(c, "Failed to stream export", gin.H{"error": err.Error()})
		}
	})
}

// respondAskError maps question failures onto the error envelope
func respondAskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidDocumentID):
		utils.RespondWithBadRequest(c, "Invalid document ID", nil)
	case errors.Is(err, services.ErrDocumentNotReady):
		utils.RespondWithConflict(c, "Document is still processing. Try again shortly.", nil)
	case err == mongo.ErrNoDocuments:
		utils.RespondWithNotFound(c, "Document not found")
	default:
		utils.RespondWithInternalError(c, "Failed to answer question", nil)
	}
}
