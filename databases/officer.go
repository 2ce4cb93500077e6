package databases

// go generate: mockery --name OfficerDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicpulse/civic-report-api/models"
)

const officerName = "officers"

// OfficerDatabase contains the methods to use with the officer roster database
type OfficerDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Officer, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Officer, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type officerDatabase struct {
	db DatabaseHelper
}

// NewOfficerDatabase initializes a new instance of officer database with the provided db connection
func NewOfficerDatabase(db DatabaseHelper) OfficerDatabase {
	return &officerDatabase{
		db: db,
	}
}

func (o *officerDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Officer, error) {
	officer := &models.Officer{}
	err := o.db.Collection(officerName).FindOne(ctx, filter, opts...).Decode(&officer)
	if err != nil {
		return nil, err
	}
	return officer, nil
}

func (o *officerDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Officer, error) {
	var officers []models.Officer
	cr, err := o.db.Collection(officerName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&officers)
	if err != nil {
		return nil, err
	}
	return officers, nil
}

func (o *officerDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := o.db.Collection(officerName).InsertOne(ctx, document, opts...)
	return res, err
}

func (o *officerDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return o.db.Collection(officerName).UpdateOne(ctx, filter, update, opts...)
}
