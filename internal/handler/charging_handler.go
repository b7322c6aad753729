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

type ChargingHandler struct {
	chargingService service.ChargingService
}

func NewChargingHandler(chargingService service.ChargingService) *ChargingHandler {
	return &ChargingHandler{chargingService: chargingService}
}

func (h *ChargingHandler) RegisterRoutes(router *gin.RouterGroup) {
	chargings := router.Group("/chargings")
	{
		chargings.GET("", middleware.RequirePermission("chargings.read"), h.ListChargings)
		chargings.GET("/:id", middleware.RequirePermission("chargings.read"), h.GetCharging)
		chargings.GET("/:id/cascade", middleware.RequirePermission("chargings.read"), h.ResolveCascade)
	}
}

// ListChargings handles GET /chargings with a code/name search
// @Summary      List RDF chargings
// @Description  Retrieves a paginated list of RDF charging records, searchable by code or name
// @Tags         chargings
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search on charging code or name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /chargings [get]
func (h *ChargingHandler) ListChargings(c *gin.Context) {
	params := pagination.Parse(c)
	chargings, total, err := h.chargingService.ListChargings(c.Request.Context(), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch chargings"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"chargings": chargings,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetCharging handles GET /chargings/:id
// @Summary      Get RDF charging by ID
// @Tags         chargings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Charging ID"
// @Success      200  {object}  response.Response{data=service.ChargingResponse}
// @Failure      404  {object}  response.Response
// @Router       /chargings/{id} [get]
func (h *ChargingHandler) GetCharging(c *gin.Context) {
	charging, err := h.chargingService.GetCharging(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, charging))
}

// ResolveCascade handles GET /chargings/:id/cascade
// @Summary      Resolve charging cascade
// @Description  Resolves the six derived organizational dimensions for a charging selection
// @Tags         chargings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Charging ID"
// @Success      200  {object}  response.Response{data=service.CascadeResponse}
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /chargings/{id}/cascade [get]
func (h *ChargingHandler) ResolveCascade(c *gin.Context) {
	cascade, err := h.chargingService.ResolveCascade(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, floweditor.ErrResolutionFailed) {
			c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
			return
		}
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cascade))
}
