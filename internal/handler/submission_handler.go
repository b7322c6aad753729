package handler

import (
	"net/http"

	"hradmin/internal/middleware"
	"hradmin/internal/service"
	"hradmin/pkg/pagination"
	"hradmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	submissionService service.SubmissionService
}

func NewSubmissionHandler(submissionService service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

func (h *SubmissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	submissions := router.Group("/submissions")
	{
		submissions.GET("", middleware.RequirePermission("submissions.read"), h.ListSubmissions)
		submissions.GET("/:id", middleware.RequirePermission("submissions.read"), h.GetSubmission)
		submissions.POST("", middleware.RequirePermission("submissions.write"), h.CreateSubmission)
		submissions.PATCH("/:id/approve", middleware.RequirePermission("submissions.approve"), h.ApproveSubmission)
		submissions.PATCH("/:id/reject", middleware.RequirePermission("submissions.approve"), h.RejectSubmission)
		submissions.PATCH("/:id/cancel", middleware.RequirePermission("submissions.write"), h.CancelSubmission)
	}
}

// CreateSubmission handles POST /submissions
// @Summary      Submit a filled form
// @Description  Creates a pending submission against an active approval flow
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateSubmissionRequest  true  "Submission Payload"
// @Success      201      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      400      {object}  response.Response
// @Router       /submissions [post]
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req service.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	submission, err := h.submissionService.CreateSubmission(c.Request.Context(), req, actorID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, submission))
}

// GetSubmission handles GET /submissions/:id
// @Summary      Get submission by ID
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  response.Response{data=service.SubmissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	submission, err := h.submissionService.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, submission))
}

// ListSubmissions handles GET /submissions with status/flow filters
// @Summary      List submissions
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        status   query     string  false  "Status filter: PENDING, APPROVED, REJECTED, CANCELLED"
// @Param        flow_id  query     string  false  "Restrict to a single approval flow"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=object}
// @Failure      500      {object}  response.Response
// @Router       /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.SubmissionFilter{
		Status: c.Query("status"),
		FlowID: c.Query("flow_id"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	submissions, total, err := h.submissionService.ListSubmissions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch submissions"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"submissions": submissions,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}

// ApproveSubmission handles PATCH /submissions/:id/approve
// @Summary      Approve submission at current step
// @Description  Records the current-step approver's approval; the final step completes the submission
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  response.Response{data=service.SubmissionResponse}
// @Failure      400  {object}  response.Response
// @Router       /submissions/{id}/approve [patch]
func (h *SubmissionHandler) ApproveSubmission(c *gin.Context) {
	submission, err := h.submissionService.ApproveSubmission(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, submission))
}

// RejectSubmission handles PATCH /submissions/:id/reject
// @Summary      Reject submission
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true   "Submission ID"
// @Param        payload  body      service.RejectSubmissionRequest  false  "Rejection reason"
// @Success      200      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      400      {object}  response.Response
// @Router       /submissions/{id}/reject [patch]
func (h *SubmissionHandler) RejectSubmission(c *gin.Context) {
	var req service.RejectSubmissionRequest
	_ = c.ShouldBindJSON(&req) // reason is optional

	submission, err := h.submissionService.RejectSubmission(c.Request.Context(), c.Param("id"), actorID(c), req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, submission))
}

// CancelSubmission handles PATCH /submissions/:id/cancel
// @Summary      Cancel submission
// @Description  Lets the original submitter withdraw a still-pending submission
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  response.Response{data=service.SubmissionResponse}
// @Failure      400  {object}  response.Response
// @Router       /submissions/{id}/cancel [patch]
func (h *SubmissionHandler) CancelSubmission(c *gin.Context) {
	submission, err := h.submissionService.CancelSubmission(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, submission))
}
