package handler

import (
	"net/http"

	"hradmin/internal/middleware"
	"hradmin/internal/service"
	"hradmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type DirectoryHandler struct {
	directoryService service.DirectoryService
}

func NewDirectoryHandler(directoryService service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

func (h *DirectoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	directory := router.Group("/directory")
	{
		directory.GET("/approvers", middleware.RequirePermission("directory.read"), h.ListApprovers)
		directory.GET("/receivers", middleware.RequirePermission("directory.read"), h.ListReceivers)
		directory.GET("/forms", middleware.RequirePermission("directory.read"), h.ListForms)
	}
}

// ListApprovers handles GET /directory/approvers
// @Summary      List available approvers
// @Description  Returns active users eligible for approver sequences, ordered by name
// @Tags         directory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.DirectoryUserResponse}
// @Failure      500  {object}  response.Response
// @Router       /directory/approvers [get]
func (h *DirectoryHandler) ListApprovers(c *gin.Context) {
	approvers, err := h.directoryService.GetApprovers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch approvers"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approvers))
}

// ListReceivers handles GET /directory/receivers
// @Summary      List available receivers
// @Tags         directory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.DirectoryUserResponse}
// @Failure      500  {object}  response.Response
// @Router       /directory/receivers [get]
func (h *DirectoryHandler) ListReceivers(c *gin.Context) {
	receivers, err := h.directoryService.GetReceivers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch receivers"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receivers))
}

// ListForms handles GET /directory/forms
// @Summary      List form types
// @Description  Returns the active form types an approval flow can be attached to
// @Tags         directory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.FormTypeResponse}
// @Failure      500  {object}  response.Response
// @Router       /directory/forms [get]
func (h *DirectoryHandler) ListForms(c *gin.Context) {
	forms, err := h.directoryService.GetForms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch forms"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, forms))
}
