package handler

import (
	"errors"
	"net/http"

	"hradmin/internal/floweditor"
	"hradmin/internal/middleware"
	"hradmin/internal/service"
	"hradmin/pkg/pagination"
	"hradmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type FlowHandler struct {
	flowService service.FlowService
}

// NewFlowHandler sets up the routing dependencies for approval flow endpoints
func NewFlowHandler(flowService service.FlowService) *FlowHandler {
	return &FlowHandler{flowService: flowService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *FlowHandler) RegisterRoutes(router *gin.RouterGroup) {
	flows := router.Group("/flows")
	{
		flows.GET("", middleware.RequirePermission("flows.read"), h.ListFlows)
		flows.GET("/:id", middleware.RequirePermission("flows.read"), h.GetFlow)
		flows.POST("", middleware.RequirePermission("flows.write"), h.CreateFlow)
		flows.PUT("/:id", middleware.RequirePermission("flows.write"), h.UpdateFlow)
		flows.PATCH("/:id/archive", middleware.RequirePermission("flows.archive"), h.ToggleArchive)
	}
}

// statusForFlowError maps domain errors to HTTP status codes
func statusForFlowError(err error) int {
	switch {
	case errors.Is(err, floweditor.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, floweditor.ErrInUseConflict):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// ListFlows handles GET /flows with status/search filters and pagination
// @Summary      List approval flows
// @Description  Retrieves a paginated list of approval flows filtered by status (active, archived, all) and name search
// @Tags         flows
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Flow status filter: active (default), archived, all"
// @Param        search  query     string  false  "Case-insensitive name search"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /flows [get]
func (h *FlowHandler) ListFlows(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.FlowListFilter{
		Status: c.DefaultQuery("status", "active"),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	flows, total, err := h.flowService.ListFlows(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch approval flows"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"flows": flows,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetFlow handles GET /flows/:id
// @Summary      Get approval flow by ID
// @Description  Fetch a single approval flow with its ordered approver sequence and resolved charging cascade
// @Tags         flows
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Flow ID"
// @Success      200  {object}  response.Response{data=service.FlowResponse}
// @Failure      404  {object}  response.Response
// @Router       /flows/{id} [get]
func (h *FlowHandler) GetFlow(c *gin.Context) {
	flow, err := h.flowService.GetFlow(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, flow))
}

// CreateFlow handles POST /flows
// @Summary      Create approval flow
// @Description  Creates a new approval flow with an ordered approver sequence and either an RDF charging or the no-charging marker
// @Tags         flows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.FlowPayloadRequest  true  "Flow Payload"
// @Success      201      {object}  response.Response{data=service.FlowResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /flows [post]
func (h *FlowHandler) CreateFlow(c *gin.Context) {
	var req service.FlowPayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	flow, err := h.flowService.CreateFlow(c.Request.Context(), req, actorID(c))
	if err != nil {
		status := statusForFlowError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, flow))
}

// UpdateFlow handles PUT /flows/:id
// @Summary      Update approval flow
// @Description  Updates an approval flow. Form and charging fields are rejected with 409 while the flow has pending submissions.
// @Tags         flows
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Flow ID"
// @Param        payload  body      service.FlowPayloadRequest  true  "Flow Payload"
// @Success      200      {object}  response.Response{data=service.FlowResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /flows/{id} [put]
func (h *FlowHandler) UpdateFlow(c *gin.Context) {
	var req service.FlowPayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	flow, err := h.flowService.UpdateFlow(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		status := statusForFlowError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, flow))
}

// ToggleArchive handles PATCH /flows/:id/archive
// @Summary      Archive or restore approval flow
// @Description  Toggles the archived state of an approval flow. Flows with pending submissions cannot be archived.
// @Tags         flows
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Flow ID"
// @Success      200  {object}  response.Response{data=service.FlowResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /flows/{id}/archive [patch]
func (h *FlowHandler) ToggleArchive(c *gin.Context) {
	flow, err := h.flowService.ToggleArchive(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		if errors.Is(err, floweditor.ErrInUseConflict) {
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, flow))
}

// actorID extracts the authenticated user's ID placed in context by the middleware
func actorID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
