package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	discover "hmcc.com/communityplatform/internal/modules/discover/service"
	"hmcc.com/communityplatform/pkg/response"
)

type DiscoverHandler struct {
	service discover.DiscoverService
}

func NewDiscoverHandler(service discover.DiscoverService) *DiscoverHandler {
	return &DiscoverHandler{service: service}
}

func (h *DiscoverHandler) Discover(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.Discover(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
