package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yigit/practicelog/internal/app/models/dto"
	"github.com/yigit/practicelog/internal/app/services"
	"github.com/yigit/practicelog/internal/middleware"
	"github.com/yigit/practicelog/internal/pkg/helpers"
	"github.com/yigit/practicelog/internal/pkg/validation"
)

// CheckinController exposes members, submissions and collection schemas
type CheckinController struct {
	checkinService services.CheckinService
}

// NewCheckinController creates a new CheckinController
func NewCheckinController(checkinService services.CheckinService) *CheckinController {
	return &CheckinController{checkinService: checkinService}
}

// ListMembers returns every member
// @Summary List members
// @Tags members
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Member}
// @Router /members [get]
func (c *CheckinController) ListMembers(ctx *gin.Context) {
	members, err := c.checkinService.ListMembers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members, ""))
}

// ListMemberSubmissions returns one member's submissions, newest first
// @Summary List a member's submissions
// @Tags members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Submission}
// @Router /members/{id}/submissions [get]
func (c *CheckinController) ListMemberSubmissions(ctx *gin.Context) {
	subs, err := c.checkinService.ListSubmissionsForMember(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(subs, ""))
}

// ListRecentSubmissions returns the newest submissions of all members
// @Summary List recent submissions
// @Tags submissions
// @Produce json
// @Param limit query int false "At most 100, default 50"
// @Success 200 {object} dto.APIResponse{data=[]models.Submission}
// @Router /submissions/recent [get]
func (c *CheckinController) ListRecentSubmissions(ctx *gin.Context) {
	limit := helpers.ParseLimit(ctx.Query("limit"), 50, services.MaxRecentSubmissions)

	subs, err := c.checkinService.ListRecentSubmissions(ctx.Request.Context(), limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(subs, ""))
}

// CreateSubmission records a submission
// @Summary Create a submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param request body dto.CreateSubmissionRequest true "Submission"
// @Success 201 {object} dto.APIResponse{data=models.CreatedSubmission}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse "Submissions collection not configured"
// @Router /submissions [post]
func (c *CheckinController) CreateSubmission(ctx *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	mediaText := helpers.ParseMediaList(req.MediaText)
	for _, u := range mediaText {
		if !validation.IsMediaURL(u) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "mediaText must list http(s) URLs or /uploads/ paths").
				WithField("mediaText").
				WithDetails(u)
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
	}

	input := services.CreateSubmissionInput{
		MemberName: req.MemberName,
		MediaURLs:  append(req.Media, mediaText...),
	}
	// Date format is checked by the calendardate binding rule
	if occurred, ok := helpers.ParseDate(strings.TrimSpace(req.Date)); ok {
		input.OccurredAt = &occurred
	}

	created, err := c.checkinService.CreateSubmission(ctx.Request.Context(), input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(created, "Submission created"))
}

// DescribeSchemas returns both collection schemas
// @Summary Describe collection schemas
// @Tags schemas
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.CollectionSchemas}
// @Failure 503 {object} dto.ErrorResponse "Collections not configured"
// @Router /schemas [get]
func (c *CheckinController) DescribeSchemas(ctx *gin.Context) {
	schemas, err := c.checkinService.DescribeSchemas(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(schemas, ""))
}
