package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicpulse/civic-report-api/config"
	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/databases/mocks"
	"github.com/civicpulse/civic-report-api/models"
)

func TestNewComplaintDatabase(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	complaintDB := databases.NewComplaintDatabase(db)

	assert.NotEmpty(t, complaintDB)
}

func TestComplaintDatabase_FindOne(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Complaint)
		(*arg).Description = "mocked-complaint"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": true}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"error": false}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	// Create new database with mocked Database interface
	complaintDba := databases.NewComplaintDatabase(dbHelper)

	// Call method with defined filter, that in our mocked function returns
	// mocked-error
	complaint, err := complaintDba.FindOne(context.Background(), bson.M{"error": true})

	assert.Empty(t, complaint)
	assert.EqualError(t, err, "mocked-error")

	// Now call the same function with different filter for correct result
	complaint, err = complaintDba.FindOne(context.Background(), bson.M{"error": false})

	assert.Equal(t, "mocked-complaint", complaint.Description)
	assert.NoError(t, err)
}

func TestComplaintDatabase_Find(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var crHelperErr databases.CursorHelper
	var crHelperCorrect databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	crHelperErr = &mocks.CursorHelper{}
	crHelperCorrect = &mocks.CursorHelper{}

	crHelperErr.(*mocks.CursorHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	crHelperCorrect.(*mocks.CursorHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Complaint)
		*arg = []models.Complaint{{Description: "mocked-complaint"}}
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": true}).
		Return(crHelperErr, nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"error": false}).
		Return(crHelperCorrect, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	complaintDba := databases.NewComplaintDatabase(dbHelper)

	complaints, err := complaintDba.Find(context.Background(), bson.M{"error": true})

	assert.Empty(t, complaints)
	assert.EqualError(t, err, "mocked-error")

	complaints, err = complaintDba.Find(context.Background(), bson.M{"error": false})

	assert.Len(t, complaints, 1)
	assert.Equal(t, "mocked-complaint", complaints[0].Description)
	assert.NoError(t, err)
}

func TestComplaintDatabase_UpdateOne(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), bson.M{"error": false}, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", context.Background(), bson.M{"error": true}, mock.Anything).
		Return(nil, errors.New("mocked-error"))

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	complaintDba := databases.NewComplaintDatabase(dbHelper)

	res, err := complaintDba.UpdateOne(context.Background(), bson.M{"error": false}, bson.M{"$set": bson.M{"status": models.StatusResolved}})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)

	res, err = complaintDba.UpdateOne(context.Background(), bson.M{"error": true}, bson.M{"$set": bson.M{"status": models.StatusResolved}})

	assert.Nil(t, res)
	assert.EqualError(t, err, "mocked-error")
}

func TestComplaintDatabase_CountDocuments(t *testing.T) {

	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("CountDocuments", context.Background(), mock.Anything).
		Return(int64(3), nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "complaints").Return(collectionHelper)

	complaintDba := databases.NewComplaintDatabase(dbHelper)

	count, err := complaintDba.CountDocuments(context.Background(), bson.M{"status": bson.M{"$ne": models.StatusResolved}})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
