package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/civicpulse/civic-report-api/api"
	"github.com/civicpulse/civic-report-api/config"
	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/models"
)

var validate = validator.New()

// Page global variable to be accessed by complaint pagination
var Page int

// Complaint exported for testing purposes
type Complaint struct {
	DB       databases.ComplaintDatabase
	UDB      databases.UserDatabase
	Uploader ImageUploader
	Hub      *NotificationHub
}

type createComplaintRequest struct {
	SubmitterID string   `json:"submitterId" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Description string   `json:"description" validate:"required,min=10"`
	Location    string   `json:"location" validate:"required,min=3"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Photos      []string `json:"photos" validate:"required,min=1,max=3"`
}

// CreateComplaintHandler creates a new complaint with status Received
func (c Complaint) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody createComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := validate.Struct(requestBody); err != nil {
		config.ErrorStatus("invalid complaint draft", http.StatusBadRequest, w, err)
		return
	}
	category := models.ComplaintCategory(requestBody.Category)
	if !category.Valid() {
		config.ErrorStatus("invalid complaint draft", http.StatusBadRequest, w, fmt.Errorf("unknown category %q", requestBody.Category))
		return
	}
	// coordinates come as a pair or not at all
	if (requestBody.Latitude == nil) != (requestBody.Longitude == nil) {
		config.ErrorStatus("invalid complaint draft", http.StatusBadRequest, w, fmt.Errorf("latitude and longitude must both be set or both be empty"))
		return
	}

	newComplaint := models.Complaint{
		ID:              primitive.NewObjectID(),
		SubmitterID:     requestBody.SubmitterID,
		Category:        category,
		Description:     requestBody.Description,
		Location:        requestBody.Location,
		Latitude:        requestBody.Latitude,
		Longitude:       requestBody.Longitude,
		Status:          models.StatusReceived,
		SubmittedAt:     primitive.NewDateTimeFromTime(time.Now()),
		BeforeImageURLs: requestBody.Photos,
		UpvotedBy:       []string{},
		Comments:        []models.Comment{},
	}

	_, err := c.DB.InsertOne(r.Context(), newComplaint)
	if err != nil {
		config.ErrorStatus("failed to create complaint", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newComplaint)
}

// ComplaintHandler returns all complaints
func (c Complaint) ComplaintHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := c.DB.Find(ctx, bson.D{}, &options.FindOptions{Limit: &limit64, Skip: &skip64})
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}
	// The frontend requires that the data elements exist, so an empty result
	// set returns an empty array rather than null
	if len(dbResp) == 0 {
		dbResp = []models.Complaint{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ComplaintByIDHandler returns a complaint by ID
func (c Complaint) ComplaintByIDHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	dbResp, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
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

// ComplaintsByUserIDHandler returns all complaints submitted by the given user
func (c Complaint) ComplaintsByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	dbResp, err := c.DB.Find(ctx, bson.M{"submitterId": userID})
	if err != nil {
		config.ErrorStatus("failed to get complaints by user ID", http.StatusNotFound, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Complaint{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateComplaintStatusHandler sets a complaint's status. This is the manual
// administrative override: any valid status is accepted, including
// regressions, so mistakes can be corrected. Entering Resolved for the first
// time stamps resolvedAt; re-entering it later never overwrites the stamp.
func (c Complaint) UpdateComplaintStatusHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	var requestBody updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	status := models.ComplaintStatus(requestBody.Status)
	if !status.Valid() {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", requestBody.Status))
		return
	}

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find complaint", http.StatusNotFound, w, err)
		return
	}

	_, err = c.DB.UpdateOne(r.Context(), bson.M{"_id": cID}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		config.ErrorStatus("failed to update status", http.StatusInternalServerError, w, err)
		return
	}

	if status == models.StatusResolved && complaint.ResolvedAt == nil {
		// stamp resolvedAt exactly once; the filter keeps a concurrent
		// resolve from overwriting an existing stamp
		resolvedAt := primitive.NewDateTimeFromTime(time.Now())
		_, err = c.DB.UpdateOne(r.Context(),
			bson.M{"_id": cID, "resolvedAt": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"resolvedAt": resolvedAt}})
		if err != nil {
			config.ErrorStatus("failed to stamp resolvedAt", http.StatusInternalServerError, w, err)
			return
		}
		c.notifyResolved(complaint)
	}

	if c.Hub != nil {
		c.Hub.NotifyStatusChange(complaint.SubmitterID, complaintID, status)
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Status updated successfully",
	})
}

type attachImageRequest struct {
	Image         string `json:"image"`
	StatusContext string `json:"statusContext"`
}

// AttachComplaintImageHandler attaches a photo to a complaint. A Resolved
// status context sets the single after photo; any other status upserts the
// progress photo keyed by that status, replacing rather than appending.
func (c Complaint) AttachComplaintImageHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	var requestBody attachImageRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if requestBody.Image == "" {
		config.ErrorStatus("image is required", http.StatusBadRequest, w, fmt.Errorf("empty image"))
		return
	}

	statusContext := models.ComplaintStatus(requestBody.StatusContext)
	if !statusContext.Valid() {
		config.ErrorStatus("invalid status context", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", requestBody.StatusContext))
		return
	}

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	imageURL := requestBody.Image
	if c.Uploader != nil && isDataURI(imageURL) {
		imageURL, err = c.Uploader.Upload(r.Context(), requestBody.Image)
		if err != nil {
			config.ErrorStatus("failed to upload image", http.StatusBadGateway, w, err)
			return
		}
	}

	var update bson.M
	if statusContext == models.StatusResolved {
		update = bson.M{"$set": bson.M{"afterImageUrl": imageURL}}
	} else {
		update = bson.M{"$set": bson.M{"progressImageUrls." + string(statusContext): imageURL}}
	}

	res, err := c.DB.UpdateOne(r.Context(), bson.M{"_id": cID}, update)
	if err != nil {
		config.ErrorStatus("failed to attach image", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("complaint not found", http.StatusNotFound, w, fmt.Errorf("no complaint with id %s", complaintID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Image attached successfully",
		"imageUrl": imageURL,
	})
}

type upvoteRequest struct {
	UserID string `json:"userId"`
}

// ToggleUpvoteHandler toggles the user's membership in the complaint's upvote
// set. Toggling twice restores the original state; the same user can never be
// counted twice.
func (c Complaint) ToggleUpvoteHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	var requestBody upvoteRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if requestBody.UserID == "" {
		config.ErrorStatus("userId is required", http.StatusBadRequest, w, fmt.Errorf("empty userId"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find complaint", http.StatusNotFound, w, err)
		return
	}

	upvoted := false
	for _, id := range complaint.UpvotedBy {
		if id == requestBody.UserID {
			upvoted = true
			break
		}
	}

	var update bson.M
	if upvoted {
		update = bson.M{"$pull": bson.M{"upvotedBy": requestBody.UserID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"upvotedBy": requestBody.UserID}}
	}

	_, err = c.DB.UpdateOne(r.Context(), bson.M{"_id": cID}, update)
	if err != nil {
		config.ErrorStatus("failed to toggle upvote", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"upvoted": !upvoted,
	})
}

type addCommentRequest struct {
	AuthorID string `json:"authorId" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// AddCommentHandler appends a new comment to a complaint
func (c Complaint) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	var requestBody addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(requestBody); err != nil {
		config.ErrorStatus("invalid comment", http.StatusBadRequest, w, err)
		return
	}

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	newComment := models.Comment{
		ID:        uuid.New().String(),
		AuthorID:  requestBody.AuthorID,
		Text:      requestBody.Text,
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}

	res, err := c.DB.UpdateOne(r.Context(), bson.M{"_id": cID}, bson.M{"$push": bson.M{"comments": newComment}})
	if err != nil {
		config.ErrorStatus("failed to add comment", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("complaint not found", http.StatusNotFound, w, fmt.Errorf("no complaint with id %s", complaintID))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newComment)
}

type deleteCommentRequest struct {
	UserID string `json:"userId"`
}

// DeleteCommentHandler removes a comment. Only the comment's author may
// delete it; anyone else gets an explicit permission error rather than a
// silent no-op.
func (c Complaint) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]
	commentID := mux.Vars(r)["comment_id"]

	var requestBody deleteCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	complaint, err := c.DB.FindOne(r.Context(), bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find complaint", http.StatusNotFound, w, err)
		return
	}

	var comment *models.Comment
	for i := range complaint.Comments {
		if complaint.Comments[i].ID == commentID {
			comment = &complaint.Comments[i]
			break
		}
	}
	if comment == nil {
		config.ErrorStatus("comment not found", http.StatusNotFound, w, fmt.Errorf("no comment with id %s", commentID))
		return
	}
	if comment.AuthorID != requestBody.UserID {
		config.ErrorStatus("only the comment author may delete it", http.StatusForbidden, w, fmt.Errorf("user %s is not the author", requestBody.UserID))
		return
	}

	_, err = c.DB.UpdateOne(r.Context(), bson.M{"_id": cID}, bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}})
	if err != nil {
		config.ErrorStatus("failed to delete comment", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Comment deleted successfully",
	})
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// SubmitFeedbackHandler attaches citizen feedback to a resolved complaint.
// Feedback on a complaint in any other status is rejected without mutating
// anything. Resubmission overwrites the prior record.
func (c Complaint) SubmitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	var requestBody feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(requestBody); err != nil {
		config.ErrorStatus("invalid feedback", http.StatusBadRequest, w, err)
		return
	}

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("invalid complaint ID", http.StatusBadRequest, w, err)
		return
	}

	// the status filter makes the write conditional: feedback lands only on
	// complaints that are Resolved right now
	res, err := c.DB.UpdateOne(r.Context(),
		bson.M{"_id": cID, "status": models.StatusResolved},
		bson.M{"$set": bson.M{"feedback": models.Feedback{
			Rating:  requestBody.Rating,
			Comment: requestBody.Comment,
		}}})
	if err != nil {
		config.ErrorStatus("failed to submit feedback", http.StatusInternalServerError, w, err)
		return
	}
	if res != nil && res.MatchedCount == 0 {
		config.ErrorStatus("feedback is only accepted on resolved complaints", http.StatusConflict, w, fmt.Errorf("complaint %s is not resolved", complaintID))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Feedback submitted successfully",
	})
}

// notifyResolved emails the submitter that their complaint was resolved.
// Failures are logged and swallowed: mail is best effort and never rolls
// back the status change.
func (c Complaint) notifyResolved(complaint *models.Complaint) {
	if c.UDB == nil {
		return
	}
	uID, err := primitive.ObjectIDFromHex(complaint.SubmitterID)
	if err != nil {
		zap.S().Debugw("submitter id is not an object id, skipping resolution email", "submitterId", complaint.SubmitterID)
		return
	}
	user, err := c.UDB.FindOne(context.Background(), bson.M{"_id": uID})
	if err != nil {
		zap.S().Warnw("failed to look up submitter for resolution email", "error", err)
		return
	}
	if err := sendResolutionEmail(user.Details.Email, complaint); err != nil {
		zap.S().Warnw("failed to send resolution email", "error", err)
	}
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
