package clemail

import (
	"regexp"
	"slices"
	"strings"
)

const PersonalEmail = "Personal Email"

var (
	personalDomains = []string{
		"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
		"icloud.com", "aol.com", "protonmail.com", "tutanota.com",
		LinkedInDomain, "detected.com",
	}

	subdomainPrefix = regexp.MustCompile(`^(www\.|mail\.|email\.|smtp\.)`)
	tldSuffix       = regexp.MustCompile(`\.(com|org|net|edu|gov|mil|int|io|co|ai|dev|app)$`)
	separators      = regexp.MustCompile(`[.-]`)
)

// Company devine un nom d'entreprise lisible depuis le domaine de l'email
func Company(email string) string {
	if email == "" || !IsValid(email) {
		return Unknown
	}

	domain := strings.ToLower(Domain(email))
	if slices.Contains(personalDomains, domain) {
		return PersonalEmail
	}

	name := subdomainPrefix.ReplaceAllString(domain, "")
	name = tldSuffix.ReplaceAllString(name, "")
	name = separators.ReplaceAllString(name, " ")

	words := strings.Split(name, " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}

	if company := strings.Join(words, " "); company != "" {
		return company
	}
	return domain
}
