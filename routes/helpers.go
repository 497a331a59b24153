package routes

import (
	"docqa-platform/middleware"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID resolves the authenticated user's ObjectID from the request
// context. On failure it writes the 401 response itself and returns false.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(middleware.GetUserID(c))
	if err != nil {
		utils.RespondWithUnauthorized(c, "Invalid user identity")
		return primitive.NilObjectID, false
	}
	return userID, true
}
