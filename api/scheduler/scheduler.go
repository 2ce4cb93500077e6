package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/civicpulse/civic-report-api/databases"
	"github.com/civicpulse/civic-report-api/models"
)

// staleAfter is how long a complaint may sit in Received before the nightly
// report flags it for follow-up.
const staleAfter = 7 * 24 * time.Hour

// Scheduler handles periodic background jobs for complaint dispatch
type Scheduler struct {
	cron       *cron.Cron
	CDB        databases.ComplaintDatabase
	ODB        databases.OfficerDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cDB databases.ComplaintDatabase, oDB databases.OfficerDatabase, lockDB databases.SchedulerLockDatabase) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		CDB:        cDB,
		ODB:        oDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Reconcile officer caseloads hourly so routing sees accurate counts
	_, err := s.cron.AddFunc("0 * * * *", s.syncActiveCases)
	if err != nil {
		zap.S().Errorw("failed to register caseload sync job", "error", err)
	}

	// Flag complaints stuck in Received nightly at 3 AM UTC
	_, err = s.cron.AddFunc("0 3 * * *", s.reportStaleComplaints)
	if err != nil {
		zap.S().Errorw("failed to register stale complaint job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Dispatch scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Dispatch scheduler stopped")
}

// syncActiveCases recounts each officer's open complaints and writes the
// count back to the roster. Officer routing reads activeCases on the hot
// path, so the counter is denormalized and reconciled here rather than
// recomputed per request.
func (s *Scheduler) syncActiveCases() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "caseload_sync_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for caseload sync job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Caseload sync job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "caseload_sync_job", s.instanceID)

	officers, err := s.ODB.Find(ctx, bson.D{})
	if err != nil {
		zap.S().Errorw("failed to load officer roster for caseload sync", "error", err)
		return
	}

	updated := 0
	for _, officer := range officers {
		count, err := s.CDB.CountDocuments(ctx, bson.M{
			"assignedOfficerId": officer.ID.Hex(),
			"status":            bson.M{"$ne": models.StatusResolved},
		})
		if err != nil {
			zap.S().Errorw("failed to count open complaints", "error", err, "officerId", officer.ID.Hex())
			continue
		}

		if int(count) == officer.ActiveCases {
			continue
		}

		_, err = s.ODB.UpdateOne(ctx, bson.M{"_id": officer.ID}, bson.M{
			"$set": bson.M{"activeCases": count},
		})
		if err != nil {
			zap.S().Errorw("failed to update officer caseload", "error", err, "officerId", officer.ID.Hex())
			continue
		}
		updated++
	}

	zap.S().Infow("Caseload sync complete",
		"officersChecked", len(officers),
		"officersUpdated", updated,
	)
}

// reportStaleComplaints logs complaints that never left Received so
// operators can route them manually.
func (s *Scheduler) reportStaleComplaints() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "stale_complaint_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for stale complaint job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Stale complaint job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "stale_complaint_job", s.instanceID)

	cutoff := time.Now().Add(-staleAfter)
	stale, err := s.CDB.Find(ctx, bson.M{
		"status":      models.StatusReceived,
		"submittedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to find stale complaints", "error", err)
		return
	}

	for _, complaint := range stale {
		zap.S().Warnw("complaint stuck in Received",
			"complaintId", complaint.ID.Hex(),
			"category", complaint.Category,
			"submittedAt", complaint.SubmittedAt.Time().Format(time.RFC3339),
		)
	}

	zap.S().Infow("Stale complaint report complete", "staleFound", len(stale))
}
