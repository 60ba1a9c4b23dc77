package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"hmcc.com/communityplatform/internal/modules/mentor/dto"
	mentor "hmcc.com/communityplatform/internal/modules/mentor/service"
	"hmcc.com/communityplatform/pkg/response"
	"hmcc.com/communityplatform/pkg/validator"
)

type MentorHandler struct {
	service mentor.MentorService
}

func NewMentorHandler(service mentor.MentorService) *MentorHandler {
	return &MentorHandler{service: service}
}

func (h *MentorHandler) ListMentors(c *gin.Context) {
	var filter dto.ListMentorsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	mentors, meta, err := h.service.ListMentors(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": mentors, "meta": meta})
}

func (h *MentorHandler) GetMentor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid uuid format"})
		return
	}

	resp, err := h.service.GetMentor(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
