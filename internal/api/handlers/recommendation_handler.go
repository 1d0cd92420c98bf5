package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/service"
)

type RecommendationHandler struct {
	service *service.RecommendationService
}

func NewRecommendationHandler(service *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// GetRecommendations serves the full ranked report for a customer-facility
// pair.
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	customerID := strings.TrimSpace(c.Query("customer_id"))
	facilityID := strings.TrimSpace(c.Query("facility_id"))
	if customerID == "" || facilityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id and facility_id are required"})
		return
	}

	report, err := h.service.Recommend(c.Request.Context(), customerID, facilityID)
	if err != nil {
		if errors.Is(err, domain.ErrNoProducts) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no products found for customer facility"})
			return
		}
		log.Error().Err(err).Msg("recommendation request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate recommendations"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetProductPrediction serves the quantile forecast for a single product.
func (h *RecommendationHandler) GetProductPrediction(c *gin.Context) {
	customerID := strings.TrimSpace(c.Query("customer_id"))
	facilityID := strings.TrimSpace(c.Query("facility_id"))
	productID := strings.TrimSpace(c.Query("product_id"))
	if customerID == "" || facilityID == "" || productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id, facility_id and product_id are required"})
		return
	}

	prediction, err := h.service.PredictProduct(c.Request.Context(), customerID, facilityID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHistory) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no order history for product"})
			return
		}
		log.Error().Err(err).Msg("product prediction request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate prediction"})
		return
	}

	c.JSON(http.StatusOK, prediction)
}
