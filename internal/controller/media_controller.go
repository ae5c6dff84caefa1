package controller

import (
	"sports_academy_backend/internal/model"
	"sports_academy_backend/internal/service"
	"sports_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MediaController struct {
	Service *service.MediaService
}

func NewMediaController(svc *service.MediaService) *MediaController {
	return &MediaController{Service: svc}
}

// @Summary Upload an avatar image
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "image file"
// @Success 201 {object} util.Response
// @Router /media/avatar [post]
func (c *MediaController) UploadAvatar(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	media, err := c.Service.UploadAvatar(ctx.Request.Context(), user.UserID, fileHeader.Filename, f)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Created(ctx, media)
}

// @Summary Upload a highlight video
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "video file"
// @Success 201 {object} util.Response
// @Router /media/highlights [post]
func (c *MediaController) UploadHighlight(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	media, err := c.Service.UploadHighlight(ctx.Request.Context(), user.UserID, fileHeader.Filename, f, fileHeader.Size)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Created(ctx, media)
}

// @Summary List own media
// @Tags media
// @Produce json
// @Security ApiKeyAuth
// @Param kind query string false "avatar or highlight"
// @Success 200 {object} util.Response
// @Router /media [get]
func (c *MediaController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Service.ListUserMedia(user.UserID, model.MediaKind(ctx.Query("kind")))
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, items)
}

// @Summary Delete a media item
// @Tags media
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "media id"
// @Success 200 {object} util.Response
// @Router /media/{id} [delete]
func (c *MediaController) Delete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Service.DeleteMedia(ctx.Request.Context(), ctx.Param("id"), user.UserID, user.Role); err != nil {
		handleServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
