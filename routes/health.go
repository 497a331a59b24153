package routes

import (
	"net/http"
	"time"

	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func SetupHealthRoutes(router *gin.Engine, mongoClient *mongo.Client, rdb *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := utils.WithShortTimeout(c.Request.Context())
		defer cancel()

		mongoStatus := "ok"
		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			mongoStatus = "unreachable"
		}

		redisStatus := "ok"
		if err := rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "unreachable"
		}

		status := "healthy"
		code := http.StatusOK
		if mongoStatus != "ok" || redisStatus != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"mongo":     mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now(),
		})
	})
}
