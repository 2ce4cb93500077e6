// Package dispatch implements the complaint dispatch engine: given a complaint
// draft and the officer roster it recommends a category, department, priority
// and a specific officer, with deterministic tie-breaking and a human-readable
// rationale.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/civicpulse/civic-report-api/models"
)

// Errors surfaced to the caller. ErrClassifier failures are atomic: no partial
// recommendation is ever returned alongside one.
var (
	ErrClassifier  = errors.New("AI processing failed")
	ErrEmptyRoster = errors.New("officer roster is empty")
)

// NoOfficerInDepartmentError is returned when the roster holds nobody in the
// recommended department. The engine never assigns a department-mismatched
// officer instead.
type NoOfficerInDepartmentError struct {
	Department models.Department
}

func (e *NoOfficerInDepartmentError) Error() string {
	return fmt.Sprintf("no officer available in department %q", e.Department)
}

// departmentByCategory is the fixed routing table. It is total over the
// category enum; treating it as such is asserted by a test.
var departmentByCategory = map[models.ComplaintCategory]models.Department{
	models.CategoryGarbage:      models.DepartmentSanitation,
	models.CategoryPothole:      models.DepartmentPublicWorks,
	models.CategoryTrafficLight: models.DepartmentTransportation,
	models.CategoryGraffiti:     models.DepartmentParksAndRec,
	models.CategoryWaterLeak:    models.DepartmentPublicWorks,
	models.CategoryOther:        models.DepartmentPublicWorks,
}

// DepartmentFor maps a category to its responsible department
func DepartmentFor(category models.ComplaintCategory) models.Department {
	return departmentByCategory[category]
}

// Draft is an unsaved complaint submission handed to the engine
type Draft struct {
	Description  string `json:"description" validate:"required,min=10"`
	Location     string `json:"location" validate:"required,min=3"`
	PhotoDataURI string `json:"photoDataUri,omitempty"`
}

// Engine produces recommendations. It is stateless and safe for concurrent use.
type Engine struct {
	classifier Classifier
	validate   *validator.Validate
}

// NewEngine returns an engine backed by the given classification capability
func NewEngine(classifier Classifier) *Engine {
	return &Engine{
		classifier: classifier,
		validate:   validator.New(),
	}
}

// Recommend runs the four dispatch stages in order: categorize, map to
// department, assign priority, select an officer. The classification call is
// the only asynchronous boundary; any failure there fails the whole
// recommendation rather than surfacing a partial one.
func (e *Engine) Recommend(ctx context.Context, draft Draft, roster []models.Officer) (*models.Recommendation, error) {
	if err := e.validate.Struct(draft); err != nil {
		return nil, fmt.Errorf("invalid draft: %w", err)
	}
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	in := ProcessInput{
		Complaint: DraftComplaint{
			Description:  draft.Description,
			Location:     draft.Location,
			PhotoDataURI: draft.PhotoDataURI,
		},
	}
	for _, o := range roster {
		in.Officers = append(in.Officers, RosterOfficer{
			ID:          o.ID.Hex(),
			Name:        o.Name,
			Department:  string(o.Department),
			Location:    o.Location,
			ActiveCases: o.ActiveCases,
		})
	}

	out, err := e.classifier.ProcessComplaint(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifier, err)
	}

	// Stage 1: categorize. An unrecognized label never reaches the complaint.
	category := models.ComplaintCategory(out.SuggestedCategory)
	if !category.Valid() {
		zap.S().Warnw("classifier returned unknown category, falling back",
			"label", out.SuggestedCategory)
		category = models.CategoryOther
	}

	// Stage 2: department comes from the fixed routing table, not the model
	department := DepartmentFor(category)
	if out.RecommendedDepartment != "" && out.RecommendedDepartment != string(department) {
		zap.S().Debugw("classifier department differs from routing table",
			"classifier", out.RecommendedDepartment,
			"table", department)
	}

	// Stage 3: priority is the model's judgment, defaulting to Medium
	priority := models.Priority(out.Priority)
	if !priority.Valid() {
		priority = models.PriorityMedium
	}

	// Stage 4: officer selection is computed locally so that ties break
	// deterministically regardless of what the model suggested
	officer, err := selectOfficer(roster, department, draft.Location)
	if err != nil {
		return nil, err
	}
	if out.AssignedOfficer.ID != "" && out.AssignedOfficer.ID != officer.ID.Hex() {
		if !rosterContains(roster, out.AssignedOfficer.ID) {
			zap.S().Warnw("classifier suggested officer not present in roster",
				"officerId", out.AssignedOfficer.ID)
		}
	}

	return &models.Recommendation{
		SuggestedCategory:     category,
		RecommendedDepartment: department,
		Priority:              priority,
		AssignedOfficer: models.AssignedOfficer{
			ID:   officer.ID.Hex(),
			Name: officer.Name,
		},
		Reasoning: buildReasoning(category, department, priority, officer, draft.Location, out.Reasoning),
	}, nil
}

// CategorizeImage derives a category from a photo alone, for the submit flow.
// Classification failures and unknown labels both fall back to Other; this
// path never fails the submission.
func (e *Engine) CategorizeImage(ctx context.Context, photoDataURI string) models.ComplaintCategory {
	label, err := e.classifier.CategorizeImage(ctx, photoDataURI)
	if err != nil {
		zap.S().Warnw("image categorization failed, falling back", "error", err)
		return models.CategoryOther
	}
	category := models.ComplaintCategory(label)
	if !category.Valid() {
		return models.CategoryOther
	}
	return category
}

// selectOfficer narrows the roster in strict order: department filter,
// location closeness, lowest active cases, first roster occurrence. The
// department filter producing an empty set is a hard error.
func selectOfficer(roster []models.Officer, department models.Department, location string) (*models.Officer, error) {
	var candidates []models.Officer
	for _, o := range roster {
		if o.Department == department {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil, &NoOfficerInDepartmentError{Department: department}
	}

	best := 0
	bestScore := Closeness(candidates[0].Location, location)
	for i := 1; i < len(candidates); i++ {
		score := Closeness(candidates[i].Location, location)
		switch {
		case score > bestScore:
			best, bestScore = i, score
		case score == bestScore && candidates[i].ActiveCases < candidates[best].ActiveCases:
			best = i
		}
	}
	return &candidates[best], nil
}

func rosterContains(roster []models.Officer, id string) bool {
	for _, o := range roster {
		if o.ID.Hex() == id {
			return true
		}
	}
	return false
}

func buildReasoning(category models.ComplaintCategory, department models.Department, priority models.Priority, officer *models.Officer, location, modelReasoning string) string {
	s := fmt.Sprintf("Categorized as %s and routed to %s. Priority %s. Assigned %s (location %q vs complaint %q, %d active cases).",
		category, department, priority, officer.Name, officer.Location, location, officer.ActiveCases)
	if modelReasoning != "" {
		s += " Classifier notes: " + modelReasoning
	}
	return s
}
