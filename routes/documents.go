package routes

import (
	"errors"
	"net/http"
	"strconv"

	"docqa-platform/internal/config"
	"docqa-platform/middleware"
	"docqa-platform/models"
	"docqa-platform/services"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, docs *services.DocumentService, store *services.DocumentStore, authMW *middleware.AuthMiddleware) {
	group := router.Group("/api/documents")
	group.Use(authMW.RequireAuth())

	// Upload a document file. Small files are processed in-request and come
	// back completed; large ones are queued and come back pending.
	group.POST("", func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithBadRequest(c, "File size exceeds maximum limit", nil)
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}
		defer file.Close()

		result, err := docs.ValidateAndProcessUpload(c.Request.Context(), &services.UploadRequest{
			File:   file,
			Header: header,
			UserID: userID,
		})
		if err != nil {
			respondUploadError(c, err)
			return
		}

		status := http.StatusCreated
		switch {
		case result.Duplicate:
			status = http.StatusOK
		case result.TaskID != "":
			status = http.StatusAccepted
		}

		resp := gin.H{
			"message":  result.Message,
			"document": result.Document,
		}
		if result.TaskID != "" {
			resp["task_id"] = result.TaskID
		}
		c.JSON(status, resp)
	})

	// Queue a URL crawl as a document source
	group.POST("/url", func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var req models.IngestURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		result, err := docs.IngestURL(c.Request.Context(), userID, &req)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue crawl", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message":  result.Message,
			"document": result.Document,
			"task_id":  result.TaskID,
		})
	})

	// List the caller's documents, newest first
	group.GET("", func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

		list, err := store.ListByUser(c.Request.Context(), userID, limit)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"documents": list,
			"count":     len(list),
		})
	})

	// Fetch a single document's metadata and status
	group.GET("/:id", func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		docID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document ID", nil)
			return
		}

		doc, err := store.GetByID(c.Request.Context(), userID, docID)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to fetch document", nil)
			return
		}

		c.JSON(http.StatusOK, doc)
	})

	// Delete a document, its stored file and extracted text included
	group.DELETE("/:id", func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		docID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid document ID", nil)
			return
		}

		if err := docs.DeleteDocument(c.Request.Context(), userID, docID); err != nil {
			if err == mongo.ErrNoDocuments {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to delete document", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
	})
}

// respondUploadError maps ingestion failures onto the error envelope
func respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidFile):
		utils.RespondWithBadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrUnsupportedFormat):
		utils.RespondWithError(c, http.StatusUnsupportedMediaType, "unsupported_format", err.Error(), nil)
	case errors.Is(err, services.ErrExtractionFailed):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "extraction_failed", err.Error(), nil)
	default:
		utils.RespondWithInternalError(c, "Failed to process upload", gin.H{"error": err.Error()})
	}
}
