// Package clsignals extrait d'une requête HTTP les signaux du visiteur:
// IP, user agent, langue, encodage et referrer.
package clsignals

import (
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/mssola/useragent"
)

const (
	LoopbackIP     = "127.0.0.1"
	DefaultDevice  = "Desktop"
	UnknownAgent   = "Unknown"
	DirectReferrer = "Direct"
	unknownHeader  = "unknown"
	otherFamily    = "Other"
)

var (
	mobilePattern = regexp.MustCompile(`(?i)Mobile|Android|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

	botKeywords = []string{
		"bot", "crawler", "spider", "crawling", "facebook",
		"google", "baidu", "bing", "msn", "duckduckbot",
		"teoma", "slurp", "yandex", "curl", "wget",
	}
)

// Agent est le user agent décomposé
type Agent struct {
	Raw     string
	Browser string
	OS      string
	Device  string
	Mobile  bool
	Bot     bool
}

// DeviceType retourne Mobile ou Desktop
func (a Agent) DeviceType() string {
	if a.Mobile {
		return "Mobile"
	}
	return "Desktop"
}

// VisitorType retourne Bot ou Human
func (a Agent) VisitorType() string {
	if a.Bot {
		return "Bot"
	}
	return "Human"
}

// Signals regroupe tout ce qui est lu directement dans la requête
type Signals struct {
	IP       string
	Agent    Agent
	Language string
	Encoding string
	// Referrer brut, vide si absent
	Referrer string
}

// ReferrerOrDirect retourne le referrer tel qu'écrit dans la ligne
func (s Signals) ReferrerOrDirect() string {
	if s.Referrer == "" {
		return DirectReferrer
	}
	return s.Referrer
}

// Extract lit les signaux d'une requête
func Extract(r *http.Request) Signals {
	raw := r.Header.Get("User-Agent")
	if raw == "" {
		raw = UnknownAgent
	}

	return Signals{
		IP:       ClientIP(r),
		Agent:    ParseUserAgent(raw),
		Language: Language(r.Header.Get("Accept-Language")),
		Encoding: headerOrUnknown(r.Header.Get("Accept-Encoding")),
		Referrer: Referrer(r),
	}
}

// ClientIP: X-Forwarded-For (première entrée), X-Real-IP, adresse distante, puis loopback.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
			return ip
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		if host != "" {
			return host
		}
	}

	return LoopbackIP
}

// Referrer accepte les deux orthographes de l'en-tête
func Referrer(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		return ref
	}
	return r.Header.Get("Referrer")
}

// Language garde la première entrée de Accept-Language ("fr-FR,fr;q=0.9" -> "fr-FR")
func Language(acceptLanguage string) string {
	return headerOrUnknown(strings.Split(acceptLanguage, ",")[0])
}

// ParseUserAgent décompose le user agent brut
func ParseUserAgent(raw string) Agent {
	ua := useragent.New(raw)

	name, version := ua.Browser()
	browser := strings.TrimSpace(name + " " + version)
	if browser == "" {
		browser = otherFamily
	}

	info := ua.OSInfo()
	os := strings.TrimSpace(info.Name + " " + info.Version)
	if os == "" {
		os = otherFamily
	}

	device := strings.TrimSpace(ua.Model())
	if device == "" {
		device = DefaultDevice
	}

	return Agent{
		Raw:     raw,
		Browser: browser,
		OS:      os,
		Device:  device,
		Mobile:  IsMobile(raw),
		Bot:     IsBot(raw),
	}
}

func IsMobile(raw string) bool {
	return mobilePattern.MatchString(raw)
}

func IsBot(raw string) bool {
	lower := strings.ToLower(raw)
	for _, keyword := range botKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func headerOrUnknown(value string) string {
	if value == "" {
		return unknownHeader
	}
	return value
}
