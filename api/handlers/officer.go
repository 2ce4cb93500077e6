package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicpulse/civic-report-api/api"
	"github.com/civicpulse/civic-report-api/config"
	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/models"
)

// Officer exported for testing purposes
type Officer struct {
	DB databases.OfficerDatabase
}

// OfficerHandler returns the full officer roster, optionally filtered by
// department.
func (o Officer) OfficerHandler(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if dept := r.URL.Query().Get("department"); dept != "" {
		if !models.Department(dept).Valid() {
			config.ErrorStatus("invalid department", http.StatusBadRequest, w, fmt.Errorf("unknown department %q", dept))
			return
		}
		filter["department"] = dept
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := o.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to get officers", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Officer{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// OfficerByIDHandler returns an officer by ID
func (o Officer) OfficerByIDHandler(w http.ResponseWriter, r *http.Request) {
	officerID := mux.Vars(r)["officer_id"]

	oID, err := primitive.ObjectIDFromHex(officerID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := o.DB.FindOne(r.Context(), bson.M{"_id": oID})
	if err != nil {
		config.ErrorStatus("failed to get officer by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type createOfficerRequest struct {
	Name       string `json:"name" validate:"required"`
	Department string `json:"department" validate:"required"`
	Location   string `json:"location" validate:"required"`
}

// CreateOfficerHandler adds an officer to the roster with zero active cases
func (o Officer) CreateOfficerHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody createOfficerRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(requestBody); err != nil {
		config.ErrorStatus("invalid officer", http.StatusBadRequest, w, err)
		return
	}
	department := models.Department(requestBody.Department)
	if !department.Valid() {
		config.ErrorStatus("invalid officer", http.StatusBadRequest, w, fmt.Errorf("unknown department %q", requestBody.Department))
		return
	}

	newOfficer := models.Officer{
		ID:         primitive.NewObjectID(),
		Name:       requestBody.Name,
		Department: department,
		Location:   requestBody.Location,
	}

	_, err := o.DB.InsertOne(r.Context(), newOfficer)
	if err != nil {
		config.ErrorStatus("failed to create officer", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newOfficer)
}
