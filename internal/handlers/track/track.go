package handlers_track

import (
	"net/http"
	"time"

	"resumetracker/internal/models/clemail"
	"resumetracker/internal/models/cltracker"
	"resumetracker/internal/models/clvisit"

	"github.com/gin-gonic/gin"
)

type TrackHandler struct {
	tracker    *cltracker.Tracker
	resumeURL  string
	production bool
}

func NewTrackHandler(tracker *cltracker.Tracker, resumeURL string, production bool) *TrackHandler {
	return &TrackHandler{
		tracker:    tracker,
		resumeURL:  resumeURL,
		production: production,
	}
}

// Track enregistre la visite puis redirige vers le CV
func (th *TrackHandler) Track(c *gin.Context) {
	th.tracker.Track(c.Request.Context(), c.Request, nil)
	c.Redirect(http.StatusFound, th.resumeURL)
}

// TrackEmail enregistre la visite avec l'email fourni, ignoré s'il est invalide
func (th *TrackHandler) TrackEmail(c *gin.Context) {
	provided := clemail.NewProvided(c.Query("email"), c.Query("source"))
	th.tracker.Track(c.Request.Context(), c.Request, provided)
	c.Redirect(http.StatusFound, th.resumeURL)
}

func (th *TrackHandler) mode() string {
	if th.production {
		return "production"
	}
	return "development"
}

func (th *TrackHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":              "healthy",
		"mode":                th.mode(),
		"timestamp":           time.Now().UTC().Format(clvisit.TimestampLayout),
		"resumeUrl":           th.resumeURL,
		"googleSheetsEnabled": th.production,
	})
}
