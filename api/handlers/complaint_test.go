package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicpulse/civic-report-api/api/handlers"
	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/databases/mocks"
	"github.com/civicpulse/civic-report-api/models"
)

func TestComplaint_CreateComplaintHandlerInvalidCategory(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"submitterId": "user-1",
		"category":    "Flooding",
		"description": "the whole street is under water again",
		"location":    "12 Canal St",
		"photos":      []string{"https://img.example.com/1.jpg"},
	})
	req, err := http.NewRequest("POST", "/api/v1/complaint", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_CreateComplaintHandlerRejectsHalfCoordinates(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"submitterId": "user-1",
		"category":    "Pothole",
		"description": "deep pothole near the crosswalk",
		"location":    "5th and Main",
		"latitude":    40.7128,
		"photos":      []string{"https://img.example.com/1.jpg"},
	})
	req, err := http.NewRequest("POST", "/api/v1/complaint", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_CreateComplaintHandlerTooManyPhotos(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"submitterId": "user-1",
		"category":    "Garbage",
		"description": "overflowing bins on the corner all week",
		"location":    "19 Birch Ave",
		"photos":      []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"},
	})
	req, err := http.NewRequest("POST", "/api/v1/complaint", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_CreateComplaintHandlerCreated(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{
		"submitterId": "user-1",
		"category":    "Water Leak",
		"description": "water bubbling up through the sidewalk",
		"location":    "88 Fountain Rd",
		"latitude":    40.7128,
		"longitude":   -74.006,
		"photos":      []string{"https://img.example.com/1.jpg"},
	})
	req, err := http.NewRequest("POST", "/api/v1/complaint", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	insertOneResult := &mocks.InsertOneResultHelper{}

	var inserted models.Complaint
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertOneResult, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(models.Complaint)
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, models.StatusReceived, inserted.Status)
	assert.Equal(t, models.CategoryWaterLeak, inserted.Category)
	assert.NotNil(t, inserted.Latitude)
	assert.Empty(t, inserted.UpvotedBy)
	assert.Nil(t, inserted.ResolvedAt)
}

func TestComplaint_UpdateComplaintStatusHandlerInvalidStatus(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"status": "Closed"})
	req, err := http.NewRequest("PUT", "/api/v1/complaint/608cafe595eb9dc05379b7f4/status", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpdateComplaintStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_UpdateComplaintStatusHandlerStampsResolvedAtOnce(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"status": "Resolved"})
	req, err := http.NewRequest("PUT", "/api/v1/complaint/608cafe595eb9dc05379b7f4/status", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Complaint)
		(*arg).SubmitterID = "user-1"
		(*arg).Status = models.StatusWorkInProgress
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	var updateFilters []bson.M
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		updateFilters = append(updateFilters, args.Get(1).(bson.M))
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpdateComplaintStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// first write sets the status, second stamps resolvedAt behind the
	// exists guard
	assert.Len(t, updateFilters, 2)
	assert.Contains(t, updateFilters[1], "resolvedAt")
}

func TestComplaint_UpdateComplaintStatusHandlerNeverRestamps(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"status": "Resolved"})
	req, err := http.NewRequest("PUT", "/api/v1/complaint/608cafe595eb9dc05379b7f4/status", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	stamped := primitive.DateTime(1700000000000)
	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Complaint)
		(*arg).SubmitterID = "user-1"
		(*arg).Status = models.StatusResolved
		(*arg).ResolvedAt = &stamped
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	updates := 0
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		updates++
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpdateComplaintStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, updates)
}

func TestComplaint_AttachComplaintImageHandlerResolvedSetsAfterImage(t *testing.T) {
	body, _ := json.Marshal(map[string]string{
		"image":         "https://img.example.com/after.jpg",
		"statusContext": "Resolved",
	})
	req, err := http.NewRequest("PUT", "/api/v1/complaint/608cafe595eb9dc05379b7f4/image", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	var update bson.M
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		update = args.Get(2).(bson.M)
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.AttachComplaintImageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	set := update["$set"].(bson.M)
	assert.Equal(t, "https://img.example.com/after.jpg", set["afterImageUrl"])
}

func TestComplaint_AttachComplaintImageHandlerProgressKeyedByStatus(t *testing.T) {
	body, _ := json.Marshal(map[string]string{
		"image":         "https://img.example.com/digging.jpg",
		"statusContext": "Work in Progress",
	})
	req, err := http.NewRequest("PUT", "/api/v1/complaint/608cafe595eb9dc05379b7f4/image", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	var update bson.M
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		update = args.Get(2).(bson.M)
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.AttachComplaintImageHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	set := update["$set"].(bson.M)
	assert.Equal(t, "https://img.example.com/digging.jpg", set["progressImageUrls.Work in Progress"])
}

func TestComplaint_ToggleUpvoteHandlerAddsVote(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"userId": "user-2"})
	req, err := http.NewRequest("POST", "/api/v1/complaint/608cafe595eb9dc05379b7f4/upvote", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Complaint)
		(*arg).UpvotedBy = []string{"user-1"}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	var update bson.M
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		update = args.Get(2).(bson.M)
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ToggleUpvoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, update, "$addToSet")
	assert.Contains(t, rr.Body.String(), `"upvoted":true`)
}

func TestComplaint_ToggleUpvoteHandlerRemovesExistingVote(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"userId": "user-1"})
	req, err := http.NewRequest("POST", "/api/v1/complaint/608cafe595eb9dc05379b7f4/upvote", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Complaint)
		(*arg).UpvotedBy = []string{"user-1"}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	var update bson.M
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		update = args.Get(2).(bson.M)
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ToggleUpvoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, update, "$pull")
	assert.Contains(t, rr.Body.String(), `"upvoted":false`)
}

func TestComplaint_DeleteCommentHandlerForbiddenForNonAuthor(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"userId": "user-2"})
	req, err := http.NewRequest("DELETE", "/api/v1/complaint/608cafe595eb9dc05379b7f4/comment/c-1", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4", "comment_id": "c-1"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Complaint)
		(*arg).Comments = []models.Comment{{ID: "c-1", AuthorID: "user-1", Text: "any updates?"}}
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.DeleteCommentHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	// the complaint must not be touched
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplaint_SubmitFeedbackHandlerConflictWhenNotResolved(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{"rating": 4, "comment": "quick turnaround"})
	req, err := http.NewRequest("POST", "/api/v1/complaint/608cafe595eb9dc05379b7f4/feedback", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	// conditional write matches nothing because the complaint is not Resolved
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.SubmitFeedbackHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestComplaint_SubmitFeedbackHandlerRejectsOutOfRangeRating(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{"rating": 9})
	req, err := http.NewRequest("POST", "/api/v1/complaint/608cafe595eb9dc05379b7f4/feedback", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.SubmitFeedbackHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_SubmitFeedbackHandlerOverwritesPriorFeedback(t *testing.T) {
	body, _ := json.Marshal(map[string]interface{}{"rating": 2, "comment": "took too long"})
	req, err := http.NewRequest("POST", "/api/v1/complaint/608cafe595eb9dc05379b7f4/feedback", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "608cafe595eb9dc05379b7f4"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	var update bson.M
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		update = args.Get(2).(bson.M)
	})
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.SubmitFeedbackHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	set := update["$set"].(bson.M)
	assert.Equal(t, models.Feedback{Rating: 2, Comment: "took too long"}, set["feedback"])
}

func TestComplaint_ComplaintByIDHandlerInvalidID(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/complaint/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"complaint_id": "1234"})

	db := &MockDatabaseHelper{}
	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ComplaintByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	expected := models.ErrorMessageResponse{Response: models.MessageError{Message: "failed to get objectID from Hex", Error: "the provided hex string is not a valid ObjectID"}}
	b, _ := json.Marshal(expected)
	assert.Equal(t, string(b), rr.Body.String())
}

func TestComplaint_ComplaintsByUserIDHandlerEmptyResultIsArray(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/complaints/user/user-9", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-9"})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "complaints").Return(conn)

	c := handlers.Complaint{DB: databases.NewComplaintDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ComplaintsByUserIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}
