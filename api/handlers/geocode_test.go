package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/civicpulse/civic-report-api/api/handlers"
)

func TestGeocode_ReverseGeocodeHandlerUsesProviderName(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"display_name": "City Hall, 1 Civic Plaza"}`))
	}))
	defer provider.Close()

	g := handlers.Geocode{BaseURL: provider.URL, Client: &http.Client{Timeout: time.Second}}

	req, err := http.NewRequest("GET", "/api/v1/geocode/reverse?lat=40.7128&lon=-74.0060", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.ReverseGeocodeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "City Hall, 1 Civic Plaza")
}

func TestGeocode_ReverseGeocodeHandlerFallsBackToCoordinates(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	g := handlers.Geocode{BaseURL: provider.URL, Client: &http.Client{Timeout: time.Second}}

	req, err := http.NewRequest("GET", "/api/v1/geocode/reverse?lat=40.71280&lon=-74.00600", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.ReverseGeocodeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Lat: 40.71280, Lon: -74.00600")
}

func TestGeocode_ReverseGeocodeHandlerInvalidCoordinates(t *testing.T) {
	g := handlers.Geocode{BaseURL: "http://localhost:0", Client: &http.Client{Timeout: time.Second}}

	req, err := http.NewRequest("GET", "/api/v1/geocode/reverse?lat=north&lon=-74.0060", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(g.ReverseGeocodeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
