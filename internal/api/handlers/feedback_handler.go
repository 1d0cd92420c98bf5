package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/service"
)

type FeedbackHandler struct {
	service *service.FeedbackService
}

func NewFeedbackHandler(service *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var record domain.FeedbackRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.service.Submit(c.Request.Context(), &record); err != nil {
		if strings.Contains(err.Error(), "save feedback") {
			log.Error().Err(err).Msg("feedback save failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save feedback"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": record.ID, "status": "received"})
}

func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	predictionID := strings.TrimSpace(c.Query("prediction_id"))
	if predictionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prediction_id is required"})
		return
	}

	records, err := h.service.ForPrediction(c.Request.Context(), predictionID)
	if err != nil {
		log.Error().Err(err).Msg("feedback lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feedback"})
		return
	}
	if records == nil {
		records = make([]domain.FeedbackRecord, 0)
	}

	c.JSON(http.StatusOK, records)
}
