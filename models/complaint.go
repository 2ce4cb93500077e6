package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ComplaintCategory is the fixed set of categories a complaint can carry
type ComplaintCategory string

// Complaint categories
const (
	CategoryGarbage      ComplaintCategory = "Garbage"
	CategoryPothole      ComplaintCategory = "Pothole"
	CategoryTrafficLight ComplaintCategory = "Traffic Light"
	CategoryGraffiti     ComplaintCategory = "Graffiti"
	CategoryWaterLeak    ComplaintCategory = "Water Leak"
	CategoryOther        ComplaintCategory = "Other"
)

// ComplaintCategories lists every valid category, in display order
var ComplaintCategories = []ComplaintCategory{
	CategoryGarbage,
	CategoryPothole,
	CategoryTrafficLight,
	CategoryGraffiti,
	CategoryWaterLeak,
	CategoryOther,
}

// Valid reports whether c is a member of the fixed category set
func (c ComplaintCategory) Valid() bool {
	for _, cat := range ComplaintCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// ComplaintStatus is the lifecycle state of a complaint
type ComplaintStatus string

// Complaint statuses, in lifecycle order
const (
	StatusReceived       ComplaintStatus = "Received"
	StatusUnderReview    ComplaintStatus = "Under Review"
	StatusWorkInProgress ComplaintStatus = "Work in Progress"
	StatusResolved       ComplaintStatus = "Resolved"
)

// ComplaintStatuses lists every valid status, in lifecycle order
var ComplaintStatuses = []ComplaintStatus{
	StatusReceived,
	StatusUnderReview,
	StatusWorkInProgress,
	StatusResolved,
}

// Valid reports whether s is a member of the fixed status set
func (s ComplaintStatus) Valid() bool {
	for _, status := range ComplaintStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Comment is a citizen comment on a complaint, deletable only by its author
type Comment struct {
	ID        string             `bson:"id" json:"id"`
	AuthorID  string             `bson:"authorId" json:"authorId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt primitive.DateTime `bson:"createdAt" json:"createdAt"`
}

// Feedback is a citizen rating attached to a resolved complaint. Resubmitting
// overwrites the previous record, which is intentional "update my feedback"
// behavior rather than an error.
type Feedback struct {
	Rating  int    `bson:"rating" json:"rating"`
	Comment string `bson:"comment" json:"comment"`
}

// Complaint holds the structure for the complaint collection in mongo.
// Latitude and Longitude are both present or both absent, never one alone.
// ResolvedAt is stamped the first time a complaint enters Resolved and is
// never cleared or overwritten afterward, even if an administrator manually
// regresses the status.
type Complaint struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	SubmitterID       string              `bson:"submitterId" json:"submitterId"`
	Category          ComplaintCategory   `bson:"category" json:"category"`
	Description       string              `bson:"description" json:"description"`
	Location          string              `bson:"location" json:"location"`
	Latitude          *float64            `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64            `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Status            ComplaintStatus     `bson:"status" json:"status"`
	SubmittedAt       primitive.DateTime  `bson:"submittedAt" json:"submittedAt"`
	ResolvedAt        *primitive.DateTime `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	AssignedOfficerID string              `bson:"assignedOfficerId,omitempty" json:"assignedOfficerId,omitempty"`
	BeforeImageURLs   []string            `bson:"beforeImageUrls" json:"beforeImageUrls"`
	ProgressImageURLs map[string]string   `bson:"progressImageUrls,omitempty" json:"progressImageUrls,omitempty"`
	AfterImageURL     string              `bson:"afterImageUrl,omitempty" json:"afterImageUrl,omitempty"`
	UpvotedBy         []string            `bson:"upvotedBy" json:"upvotedBy"`
	Comments          []Comment           `bson:"comments" json:"comments"`
	Feedback          *Feedback           `bson:"feedback,omitempty" json:"feedback,omitempty"`
}
