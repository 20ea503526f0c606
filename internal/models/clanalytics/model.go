package clanalytics

import (
	"fmt"

	"resumetracker/internal/models/clemail"
	"resumetracker/internal/models/clvisit"
)

// DevModePlaceholder remplace les chiffres quand aucune feuille n'est branchée
const DevModePlaceholder = "N/A (dev mode)"

// DevModeMessage accompagne les stats en développement
const DevModeMessage = "Running in development mode - no real Google Sheets data"

// Stats représente la réponse de /stats en production
type Stats struct {
	Mode               string `json:"mode"`
	TotalViews         int    `json:"totalViews"`
	EmailsDetected     int    `json:"emailsDetected"`
	EmailDetectionRate string `json:"emailDetectionRate"`
	LastUpdate         string `json:"lastUpdate"`
}

// DevStats représente la réponse de /stats en développement
type DevStats struct {
	Mode               string `json:"mode"`
	TotalViews         string `json:"totalViews"`
	EmailsDetected     string `json:"emailsDetected"`
	EmailDetectionRate string `json:"emailDetectionRate"`
	Message            string `json:"message"`
	LastUpdate         string `json:"lastUpdate"`
}

// Summarize compte les vues et les emails détectés, la première ligne est l'en-tête
func Summarize(rows [][]any) (total, detected int, rate string) {
	total = max(len(rows)-1, 0)
	for i, row := range rows {
		if i == 0 || len(row) <= clvisit.EmailColumn {
			continue
		}
		email := fmt.Sprint(row[clvisit.EmailColumn])
		if row[clvisit.EmailColumn] != nil && email != "" && email != clemail.NotDetected {
			detected++
		}
	}
	return total, detected, Rate(total, detected)
}

// Rate formate le taux de détection avec une décimale
func Rate(total, detected int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(detected)/float64(total)*100)
}
