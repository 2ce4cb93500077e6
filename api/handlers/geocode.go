package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/civicpulse/civic-report-api/config"
)

// Geocode exported for testing purposes
type Geocode struct {
	BaseURL string
	Client  *http.Client
}

// NewGeocode builds a reverse geocoding proxy against the configured
// provider.
func NewGeocode(conf *config.Config) *Geocode {
	return &Geocode{
		BaseURL: conf.GeocoderURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type reverseGeocodeResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseGeocodeHandler converts coordinates to a human readable address.
// When the provider fails or returns nothing the raw coordinates are
// formatted as the location string so submission can continue offline.
func (g Geocode) ReverseGeocodeHandler(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		config.ErrorStatus("invalid latitude", http.StatusBadRequest, w, err)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		config.ErrorStatus("invalid longitude", http.StatusBadRequest, w, err)
		return
	}

	location := g.lookup(r, lat, lon)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"location": location,
	})
}

func (g Geocode) lookup(r *http.Request, lat, lon float64) string {
	fallback := fmt.Sprintf("Lat: %.5f, Lon: %.5f", lat, lon)

	url := fmt.Sprintf("%s/reverse?format=json&lat=%f&lon=%f", g.BaseURL, lat, lon)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return fallback
	}
	req.Header.Set("User-Agent", "civic-report-api")

	resp, err := g.Client.Do(req)
	if err != nil {
		zap.S().Warnw("reverse geocode request failed", "error", err)
		return fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		zap.S().Warnw("reverse geocode returned non-200", "status", resp.StatusCode)
		return fallback
	}

	var body reverseGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.DisplayName == "" {
		return fallback
	}
	return body.DisplayName
}
