package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/civicpulse/civic-report-api/config"
)

// DraftComplaint is the complaint portion of a classification request
type DraftComplaint struct {
	Description  string `json:"description"`
	Location     string `json:"location"`
	PhotoDataURI string `json:"photoDataUri,omitempty"`
}

// RosterOfficer is the officer summary sent to the classification service
type RosterOfficer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	Location    string `json:"location"`
	ActiveCases int    `json:"activeCases"`
}

// ProcessInput is the request body for a full dispatch classification
type ProcessInput struct {
	Complaint DraftComplaint  `json:"complaint"`
	Officers  []RosterOfficer `json:"officers"`
}

// ProcessOutput is the raw classification service response. The service speaks
// free-form model output with no compile-time contract, so every field is
// validated again by the engine before it reaches domain logic.
type ProcessOutput struct {
	SuggestedCategory     string `json:"suggestedCategory" validate:"required"`
	RecommendedDepartment string `json:"recommendedDepartment"`
	Priority              string `json:"priority"`
	AssignedOfficer       struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"assignedOfficer"`
	Reasoning string `json:"reasoning"`
}

type categorizeImageRequest struct {
	PhotoDataURI string `json:"photoDataUri"`
}

type categorizeImageResponse struct {
	SuggestedCategory string `json:"suggestedCategory" validate:"required"`
}

// Classifier is the external natural-language classification capability. The
// engine owns validation and fallback; implementations only move bytes.
type Classifier interface {
	ProcessComplaint(ctx context.Context, in ProcessInput) (*ProcessOutput, error)
	CategorizeImage(ctx context.Context, photoDataURI string) (string, error)
}

// classifierTimeout bounds every call into the classification service. The
// service imposes no timeout of its own; expiry is treated identically to a
// classification failure.
const classifierTimeout = 15 * time.Second

// HTTPClassifier calls the classification service over HTTP
type HTTPClassifier struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	validate *validator.Validate
}

// NewHTTPClassifier builds a classifier from the project config
func NewHTTPClassifier(conf *config.Config) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL:  conf.DispatchAIURL,
		apiKey:   conf.DispatchAIKey,
		client:   &http.Client{Timeout: classifierTimeout},
		validate: validator.New(),
	}
}

// ProcessComplaint runs the full dispatch classification
func (h *HTTPClassifier) ProcessComplaint(ctx context.Context, in ProcessInput) (*ProcessOutput, error) {
	out := &ProcessOutput{}
	if err := h.post(ctx, "/process-complaint", in, out); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(out); err != nil {
		return nil, fmt.Errorf("classifier response failed schema validation: %w", err)
	}
	return out, nil
}

// CategorizeImage asks the classification service for a category label based
// on a photo alone
func (h *HTTPClassifier) CategorizeImage(ctx context.Context, photoDataURI string) (string, error) {
	out := &categorizeImageResponse{}
	if err := h.post(ctx, "/categorize-image", categorizeImageRequest{PhotoDataURI: photoDataURI}, out); err != nil {
		return "", err
	}
	if err := h.validate.Struct(out); err != nil {
		return "", fmt.Errorf("classifier response failed schema validation: %w", err)
	}
	return out.SuggestedCategory, nil
}

func (h *HTTPClassifier) post(ctx context.Context, path string, in interface{}, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, classifierTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
