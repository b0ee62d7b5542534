package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserController struct{}

func NewUserController() *UserController {
	return &UserController{}
}

// Me echoes the identity the auth middleware resolved for the request.
func (c *UserController) Me(ctx *gin.Context) {
	user := currentIdentity(ctx)
	if user.UserID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid credentials"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}
