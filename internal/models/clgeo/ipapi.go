package clgeo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6/httpclient"
)

const (
	userAgent = "ResumeTracker/1.0"
	// taille max d'une réponse ipapi acceptée
	maxBodySize = 64 << 10
)

// IPAPI interroge https://ipapi.co/<ip>/json/, un seul essai
type IPAPI struct {
	client  *httpclient.Client
	baseURL string
	timeout time.Duration
}

type ipapiResponse struct {
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	CountryCode string   `json:"country_code"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Postal      string   `json:"postal"`
	Timezone    string   `json:"timezone"`
	Org         string   `json:"org"`
	ASN         string   `json:"asn"`
}

func NewIPAPI(baseURL string, timeout time.Duration) *IPAPI {
	return &IPAPI{
		client: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetryCount(0),
		),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (a *IPAPI) Locate(ctx context.Context, ip string) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/json/", a.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return UnknownLocation(), err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return UnknownLocation(), fmt.Errorf("ipapi request: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return UnknownLocation(), fmt.Errorf("ipapi status %d", resp.StatusCode)
	}

	var payload ipapiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&payload); err != nil {
		return UnknownLocation(), fmt.Errorf("ipapi decode: %w", err)
	}
	if payload.Error {
		return UnknownLocation(), fmt.Errorf("ipapi error: %s", payload.Reason)
	}

	return Location{
		City:        orUnknown(payload.City),
		Region:      orUnknown(payload.Region),
		Country:     orUnknown(payload.CountryName),
		CountryCode: orUnknown(payload.CountryCode),
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		Postal:      orUnknown(payload.Postal),
		Timezone:    orUnknown(payload.Timezone),
		Org:         orUnknown(payload.Org),
		ASN:         orUnknown(payload.ASN),
	}, nil
}
