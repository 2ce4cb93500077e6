package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/civicpulse/civic-report-api/api/handlers"
	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/databases/mocks"
	"github.com/civicpulse/civic-report-api/models"
)

func TestOfficer_OfficerHandlerEmptyRosterIsArray(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/officers", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything).Return(cursor, nil)
	db.On("Collection", "officers").Return(conn)

	o := handlers.Officer{DB: databases.NewOfficerDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(o.OfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestOfficer_OfficerHandlerRejectsUnknownDepartmentFilter(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/officers?department=Fire", nil)
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	o := handlers.Officer{DB: databases.NewOfficerDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(o.OfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOfficer_CreateOfficerHandlerStartsWithZeroCases(t *testing.T) {
	body, _ := json.Marshal(map[string]string{
		"name":       "R. Alvarez",
		"department": "Public Works",
		"location":   "Downtown Depot",
	})
	req, err := http.NewRequest("POST", "/api/v1/officer", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	insertOneResult := &mocks.InsertOneResultHelper{}

	var inserted models.Officer
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(insertOneResult, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(models.Officer)
	})
	db.On("Collection", "officers").Return(conn)

	o := handlers.Officer{DB: databases.NewOfficerDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(o.CreateOfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 0, inserted.ActiveCases)
	assert.Equal(t, models.DepartmentPublicWorks, inserted.Department)
}

func TestOfficer_CreateOfficerHandlerUnknownDepartment(t *testing.T) {
	body, _ := json.Marshal(map[string]string{
		"name":       "R. Alvarez",
		"department": "Fire",
		"location":   "Downtown Depot",
	})
	req, err := http.NewRequest("POST", "/api/v1/officer", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	o := handlers.Officer{DB: databases.NewOfficerDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(o.CreateOfficerHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
