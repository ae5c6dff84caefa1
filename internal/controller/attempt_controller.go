package controller

import (
	"strconv"

	"sports_academy_backend/internal/service"
	"sports_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Service *service.GradingService
}

func NewAttemptController(svc *service.GradingService) *AttemptController {
	return &AttemptController{Service: svc}
}

// @Summary Start a quiz attempt
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "quiz id"
// @Success 201 {object} util.Response
// @Router /quizzes/{id}/attempts [post]
func (c *AttemptController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	attempt, err := c.Service.StartAttempt(user.UserID, ctx.Param("id"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Created(ctx, attempt)
}

// @Summary Submit answers and grade the attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "attempt id"
// @Param body body service.SubmitAttemptReq true "answers keyed by question id"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "attempt already completed"
// @Router /attempts/{id}/submit [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAttemptReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitAttempt(user.UserID, ctx.Param("id"), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary Attempt detail with per-question results
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "attempt id"
// @Success 200 {object} util.Response
// @Router /attempts/{id} [get]
func (c *AttemptController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.Service.GetAttemptDetail(ctx.Param("id"), user.UserID, user.Role)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

// @Summary List own attempts
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "page" default(1)
// @Param limit query int false "page size" default(10)
// @Success 200 {object} util.PageResponse
// @Router /attempts [get]
func (c *AttemptController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	attempts, total, err := c.Service.ListUserAttempts(user.UserID, page, limit)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.SuccessPage(ctx, attempts, total, page, limit)
}

// @Summary List attempts for a quiz
// @Tags attempts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "quiz id"
// @Param page query int false "page" default(1)
// @Param limit query int false "page size" default(10)
// @Param status query string false "filter by attempt status"
// @Success 200 {object} util.PageResponse
// @Router /quizzes/{id}/attempts [get]
func (c *AttemptController) ListByQuiz(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	rows, total, err := c.Service.ListQuizAttempts(ctx.Param("id"), page, limit, ctx.Query("status"))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.SuccessPage(ctx, rows, total, page, limit)
}

type ReviewReq struct {
	PointsEarned *int `json:"points_earned" binding:"required"`
}

// @Summary Grade a manually reviewed answer
// @Tags attempts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "attempt id"
// @Param question_id path string true "question id"
// @Param body body ReviewReq true "points to award"
// @Success 200 {object} util.Response
// @Router /attempts/{id}/answers/{question_id}/review [post]
func (c *AttemptController) Review(ctx *gin.Context) {
	var req ReviewReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.Service.ReviewAnswer(ctx.Param("id"), ctx.Param("question_id"), *req.PointsEarned)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, attempt)
}
