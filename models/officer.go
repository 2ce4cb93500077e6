package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Department is a city department that handles complaints
type Department string

// City departments
const (
	DepartmentSanitation     Department = "Sanitation"
	DepartmentPublicWorks    Department = "Public Works"
	DepartmentTransportation Department = "Transportation"
	DepartmentParksAndRec    Department = "Parks & Rec"
)

// Departments lists every valid department
var Departments = []Department{
	DepartmentSanitation,
	DepartmentPublicWorks,
	DepartmentTransportation,
	DepartmentParksAndRec,
}

// Valid reports whether d is a member of the fixed department set
func (d Department) Valid() bool {
	for _, dept := range Departments {
		if d == dept {
			return true
		}
	}
	return false
}

// Officer is a field officer roster entry. ActiveCases is maintained by the
// case-count scheduler and is read-only to the dispatch engine.
type Officer struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Department  Department         `bson:"department" json:"department"`
	Location    string             `bson:"location" json:"location"`
	ActiveCases int                `bson:"activeCases" json:"activeCases"`
}
