// Package clemail devine au mieux l'email d'un visiteur et l'entreprise
// qui se cache derrière son domaine.
package clemail

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	MaxLength = 254

	NotDetected = "Not Detected"
	Unknown     = "Unknown"

	SourceDirect       = "direct"
	SourceAutoDetected = "auto-detected"
	SourceNone         = "none"

	LinkedInDomain = "linkedin-user.com"
	GmailEmail     = "gmail-user@detected.com"
)

var (
	strictPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	genericPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	linkedInPath   = regexp.MustCompile(`/in/([^/]+)`)

	// ordre de priorité des paramètres
	paramNames = []string{"email", "e", "user_email", "mail", "contact", "user", "from"}
)

// Provided est un email fourni explicitement par /track-email
type Provided struct {
	Email  string
	Source string
}

// NewProvided retourne nil si l'email est invalide
func NewProvided(email, source string) *Provided {
	if !IsValid(email) {
		return nil
	}
	if source == "" {
		source = SourceDirect
	}
	return &Provided{Email: email, Source: source}
}

// Detection est le résultat de l'inférence
type Detection struct {
	Email  string
	Source string
}

// Found indique si un email a été trouvé
func (d Detection) Found() bool {
	return d.Email != ""
}

// IsValid applique le format strict et la longueur maximale
func IsValid(email string) bool {
	return len(email) <= MaxLength && strictPattern.MatchString(email)
}

// Detect cherche un email, la première méthode qui réussit gagne:
// email fourni, paramètres de la requête, paramètres du referrer,
// scan du referrer brut, puis les heuristiques LinkedIn et Gmail.
func Detect(provided *Provided, query url.Values, referrer string) Detection {
	if provided != nil && IsValid(provided.Email) {
		source := provided.Source
		if source == "" {
			source = SourceDirect
		}
		return Detection{Email: provided.Email, Source: source}
	}

	if email, ok := Extract(query, referrer); ok {
		return Detection{Email: email, Source: SourceAutoDetected}
	}
	return Detection{Source: SourceNone}
}

// Extract applique les méthodes automatiques sans email fourni
func Extract(query url.Values, referrer string) (string, bool) {
	if email, ok := fromParams(query); ok {
		return email, true
	}

	if referrer == "" {
		return "", false
	}
	// un referrer mal formé équivaut à aucun referrer
	ref, err := url.Parse(referrer)
	if err != nil || ref.Scheme == "" {
		return "", false
	}

	refQuery, _ := url.ParseQuery(ref.RawQuery)
	if email, ok := fromParams(refQuery); ok {
		return email, true
	}

	if match := genericPattern.FindString(referrer); match != "" && IsValid(match) {
		return match, true
	}

	host := strings.ToLower(ref.Hostname())
	if strings.Contains(host, "linkedin.com") {
		if m := linkedInPath.FindStringSubmatch(ref.EscapedPath()); m != nil {
			return m[1] + "@" + LinkedInDomain, true
		}
	}
	if strings.Contains(host, "gmail.com") || strings.Contains(host, "mail.google.com") {
		return GmailEmail, true
	}

	return "", false
}

func fromParams(values url.Values) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	for _, name := range paramNames {
		if v := values.Get(name); v != "" && IsValid(v) {
			return v, true
		}
	}
	return "", false
}

// Domain retourne la partie après @, Unknown sans email
func Domain(email string) string {
	if email == "" {
		return Unknown
	}
	parts := strings.SplitN(email, "@", 3)
	if len(parts) < 2 {
		return Unknown
	}
	return parts[1]
}
