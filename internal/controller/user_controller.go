package controller

import (
	"strconv"

	"sports_academy_backend/internal/service"
	"sports_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	Service *service.UserService
}

func NewUserController(svc *service.UserService) *UserController {
	return &UserController{Service: svc}
}

// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.UpdateProfileReq true "profile fields"
// @Success 200 {object} util.Response
// @Router /user/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateProfileReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.Service.UpdateProfile(user.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, updated)
}

// @Summary XP leaderboard
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "entries" default(10)
// @Success 200 {object} util.Response
// @Router /leaderboard [get]
func (c *UserController) Leaderboard(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	users, err := c.Service.Leaderboard(limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, users)
}
