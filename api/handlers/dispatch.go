package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicpulse/civic-report-api/config"
	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/dispatch"
	"github.com/civicpulse/civic-report-api/models"
)

// Dispatch exported for testing purposes
type Dispatch struct {
	CDB    databases.ComplaintDatabase
	ODB    databases.OfficerDatabase
	Engine *dispatch.Engine
}

// ProcessComplaintHandler runs the dispatch engine against a complaint and
// the current officer roster and returns a routing recommendation. Nothing
// is persisted; the caller confirms the suggestion separately.
func (d Dispatch) ProcessComplaintHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := d.CDB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find complaint", http.StatusNotFound, w, err)
		return
	}

	roster, err := d.ODB.Find(r.Context(), bson.D{})
	if err != nil {
		config.ErrorStatus("failed to load officer roster", http.StatusInternalServerError, w, err)
		return
	}

	draft := dispatch.Draft{
		Description: complaint.Description,
		Location:    complaint.Location,
	}
	if len(complaint.BeforeImageURLs) > 0 {
		draft.PhotoDataURI = complaint.BeforeImageURLs[0]
	}

	recommendation, err := d.Engine.Recommend(r.Context(), draft, roster)
	if err != nil {
		var noOfficer *dispatch.NoOfficerInDepartmentError
		switch {
		case errors.Is(err, dispatch.ErrClassifier):
			config.ErrorStatus("AI processing failed", http.StatusBadGateway, w, err)
		case errors.As(err, &noOfficer), errors.Is(err, dispatch.ErrEmptyRoster):
			config.ErrorStatus("no officer available for this complaint", http.StatusUnprocessableEntity, w, err)
		default:
			config.ErrorStatus("failed to process complaint", http.StatusInternalServerError, w, err)
		}
		return
	}

	zap.S().Infow("complaint processed",
		"complaintId", complaintID,
		"category", recommendation.SuggestedCategory,
		"department", recommendation.RecommendedDepartment,
		"officer", recommendation.AssignedOfficer.Name,
	)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(recommendation)
}

type acceptRecommendationRequest struct {
	SuggestedCategory string                 `json:"suggestedCategory" validate:"required"`
	AssignedOfficer   models.AssignedOfficer `json:"assignedOfficer" validate:"required"`
}

// AcceptRecommendationHandler applies a confirmed routing recommendation to
// the complaint: the category is corrected to the suggestion and the status
// moves to Under Review regardless of where it was before.
func (d Dispatch) AcceptRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	var requestBody acceptRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(requestBody); err != nil {
		config.ErrorStatus("invalid recommendation", http.StatusBadRequest, w, err)
		return
	}
	category := models.ComplaintCategory(requestBody.SuggestedCategory)
	if !category.Valid() {
		config.ErrorStatus("invalid recommendation", http.StatusBadRequest, w, fmt.Errorf("unknown category %q", requestBody.SuggestedCategory))
		return
	}

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	res, err := d.CDB.UpdateOne(r.Context(), bson.M{"_id": cID}, bson.M{"$set": bson.M{
		"category":          category,
		"status":            models.StatusUnderReview,
		"assignedOfficerId": requestBody.AssignedOfficer.ID,
	}})
	if err != nil {
		config.ErrorStatus("failed to apply recommendation", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("complaint not found", http.StatusNotFound, w, fmt.Errorf("no complaint with id %s", complaintID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Recommendation applied successfully",
	})
}

type categorizeImageRequest struct {
	PhotoDataURI string `json:"photoDataUri" validate:"required"`
}

// CategorizeImageHandler suggests a category for a photo before the citizen
// finishes the submission form.
func (d Dispatch) CategorizeImageHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody categorizeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(requestBody); err != nil {
		config.ErrorStatus("photoDataUri is required", http.StatusBadRequest, w, err)
		return
	}

	category := d.Engine.CategorizeImage(r.Context(), requestBody.PhotoDataURI)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"suggestedCategory": category,
	})
}
