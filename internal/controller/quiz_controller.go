package controller

import (
	"strconv"

	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/service"
	"sports_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

// @Summary Create a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizReq true "quiz with questions"
// @Success 201 {object} util.Response
// @Router /quizzes [post]
func (c *QuizController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.CreateQuiz(user.UserID, req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Created(ctx, quiz)
}

// @Summary Update a quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "quiz id"
// @Param body body service.QuizReq true "fields to change"
// @Success 200 {object} util.Response
// @Router /quizzes/{id} [put]
func (c *QuizController) Update(ctx *gin.Context) {
	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.UpdateQuiz(ctx.Param("id"), req)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// @Summary Delete a quiz
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /quizzes/{id} [delete]
func (c *QuizController) Delete(ctx *gin.Context) {
	if err := c.Service.DeleteQuiz(ctx.Param("id")); err != nil {
		handleServiceError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary Quiz detail
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "quiz id"
// @Success 200 {object} util.Response
// @Router /quizzes/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var (
		quiz      *model.Quiz
		questions []model.Question
		err       error
	)
	// Students only see published quizzes, with answer keys stripped by
	// the model's JSON tags.
	if user.Role == model.Student {
		quiz, questions, err = c.Service.GetQuizForStudent(ctx.Param("id"))
	} else {
		quiz, questions, err = c.Service.GetQuiz(ctx.Param("id"))
	}
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"quiz": quiz, "questions": questions})
}

// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "page" default(1)
// @Param limit query int false "page size" default(10)
// @Param course_tag query string false "filter by course tag"
// @Success 200 {object} util.PageResponse
// @Router /quizzes [get]
func (c *QuizController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	rows, total, err := c.Service.ListQuizzes(page, limit, ctx.Query("course_tag"), user.Role == model.Student)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.SuccessPage(ctx, rows, total, page, limit)
}
