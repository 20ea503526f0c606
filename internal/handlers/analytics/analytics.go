package handlers_analytics

import (
	"errors"
	"net/http"

	"resumetracker/internal/models/clanalytics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AnalyticsHandler struct {
	service    *clanalytics.AnalyticsService
	production bool
}

func NewAnalyticsHandler(service *clanalytics.AnalyticsService, production bool) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:    service,
		production: production,
	}
}

// GetStats retourne le total des vues et le taux de détection des emails
func (ah *AnalyticsHandler) GetStats(c *gin.Context) {
	if !ah.production {
		c.JSON(http.StatusOK, ah.service.GetDevStats())
		return
	}

	stats, err := ah.service.GetStats(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch stats")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRealtimeStats retourne les compteurs Redis du jour
func (ah *AnalyticsHandler) GetRealtimeStats(c *gin.Context) {
	stats, err := ah.service.GetRealtimeStats(c.Request.Context())
	if errors.Is(err, clanalytics.ErrNoCounters) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Realtime stats disabled",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch realtime stats")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve realtime stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
