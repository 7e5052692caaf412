package usecase

import (
	"fmt"
	"log"
	"time"

	"main/model"
	"main/services"
	"main/utils"
)

type AccessModeStore interface {
	GetAccessMode() (*model.AccessMode, error)
	SetAccessMode(mode *model.AccessMode) error
}

type PurgeStore interface {
	GetAllRecords() ([]*model.PresenceRecord, error)
	ApplyRewrites(rewrites []model.PresenceRewrite) error
}

type AuditRecorder interface {
	Record(kind, actorID, detail string)
}

const defaultPurgeBatchSize = 100

// AccessModeService owns the single-user-mode state machine. Callers must
// already be verified administrators; that trust boundary sits in the HTTP
// middleware, not here.
//
// There is deliberately no lock around the mode record: concurrent
// activations each run their own purge pass (purges are idempotent) and the
// store's last write wins on the record itself.
type AccessModeService struct {
	ModeRepo     AccessModeStore
	PresenceRepo PurgeStore
	Cache        *services.PresenceCache
	Audit        AuditRecorder
	BatchSize    int
}

// PurgePlan is the computed outcome of a purge pass before any write is
// issued. Removed holds per-rewrite removal counts so partially committed
// purges can report how many sessions actually went away.
type PurgePlan struct {
	Rewrites           []model.PresenceRewrite
	Removed            []int
	TotalRemoved       int
	PreservedExemption bool
}

// PlanPurge computes the rewrite for every presence record: the exempt
// user's record keeps exactly the exempt session, everyone else is cleared.
// If the exempt session is not actually present in the exempt user's record
// the record is cleared fully too. When in doubt, purge.
func PlanPurge(records []*model.PresenceRecord, exemptUserID, exemptSessionID string) *PurgePlan {
	plan := &PurgePlan{}

	for _, record := range records {
		if len(record.Sessions) == 0 && !record.Online {
			// Already purged; rewriting it again is a no-op.
			continue
		}

		exempted := exemptUserID != "" && exemptSessionID != "" &&
			record.UserID == exemptUserID && record.HasSession(exemptSessionID)

		var rewrite model.PresenceRewrite
		var removed int
		if exempted {
			rewrite = model.PresenceRewrite{
				UserID:   record.UserID,
				Sessions: []string{exemptSessionID},
				Online:   true,
			}
			removed = len(record.Sessions) - 1
			plan.PreservedExemption = true
		} else {
			rewrite = model.PresenceRewrite{
				UserID:   record.UserID,
				Sessions: []string{},
				Online:   false,
			}
			removed = len(record.Sessions)
		}

		plan.Rewrites = append(plan.Rewrites, rewrite)
		plan.Removed = append(plan.Removed, removed)
		plan.TotalRemoved += removed
	}

	return plan
}

// PurgeOutcome reports how a purge pass went. A purge with failed batches is
// a partial purge: committed batches stay committed.
type PurgeOutcome struct {
	PurgedCount        int
	PreservedExemption bool
	Batches            int
	FailedBatches      int
}

// ActivationResult is what the activating administrator gets back.
type ActivationResult struct {
	Mode *model.AccessMode
	PurgeOutcome
}

// Activate transitions to single-user mode and purges every session except
// (optionally) the activating admin's own. The mode write happens first; if
// it fails nothing has changed and the caller may retry. Purge failures do
// not roll the mode back; they are reported in the result and audited.
func (s *AccessModeService) Activate(adminID, preserveSessionID string) (*ActivationResult, error) {
	if adminID == "" {
		return nil, fmt.Errorf("adminID cannot be empty")
	}

	now := time.Now()
	mode := &model.AccessMode{
		ID:                 model.AccessModeDocID,
		Mode:               model.ModeSingleUser,
		RestrictedToUserID: adminID,
		ActivatedAt:        &now,
	}

	if err := s.ModeRepo.SetAccessMode(mode); err != nil {
		return nil, fmt.Errorf("failed to enter single-user mode: %w", err)
	}
	utils.SetSingleUserModeGauge(true)
	s.audit(model.AuditModeActivated, adminID,
		fmt.Sprintf("restricted_to=%s preserve_session=%t", adminID, preserveSessionID != ""))

	outcome := s.purge(adminID, preserveSessionID)

	result := &ActivationResult{Mode: mode, PurgeOutcome: *outcome}
	return result, nil
}

// Deactivate returns to normal mode. Any verified administrator may
// deactivate, not only the one who activated; restricting it to the
// activator would brick the system if that admin's session is lost.
// Deactivating while already normal is a no-op.
func (s *AccessModeService) Deactivate(adminID string) (*model.AccessMode, error) {
	if adminID == "" {
		return nil, fmt.Errorf("adminID cannot be empty")
	}

	current, err := s.ModeRepo.GetAccessMode()
	if err != nil {
		return nil, fmt.Errorf("failed to read access mode: %w", err)
	}
	if !current.IsSingleUser() {
		return current, nil
	}

	mode := model.DefaultAccessMode()
	if err := s.ModeRepo.SetAccessMode(mode); err != nil {
		return nil, fmt.Errorf("failed to leave single-user mode: %w", err)
	}
	utils.SetSingleUserModeGauge(false)
	s.audit(model.AuditModeDeactivated, adminID,
		fmt.Sprintf("was_restricted_to=%s", current.RestrictedToUserID))

	return mode, nil
}

// Current returns the access mode record, defaulting to normal.
func (s *AccessModeService) Current() (*model.AccessMode, error) {
	return s.ModeRepo.GetAccessMode()
}

// purge executes the batched session purge. Each batch commits or fails as
// a whole; failed batches are counted, committed ones are never rolled back.
func (s *AccessModeService) purge(exemptUserID, exemptSessionID string) *PurgeOutcome {
	outcome := &PurgeOutcome{}

	records, err := s.PresenceRepo.GetAllRecords()
	if err != nil {
		log.Printf("Warning: purge could not read presence records: %v", err)
		outcome.Batches = 1
		outcome.FailedBatches = 1
		s.audit(model.AuditPurgePartial, exemptUserID,
			fmt.Sprintf("presence read failed: %v", err))
		return outcome
	}

	plan := PlanPurge(records, exemptUserID, exemptSessionID)
	outcome.PreservedExemption = plan.PreservedExemption

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = defaultPurgeBatchSize
	}

	for start := 0; start < len(plan.Rewrites); start += batchSize {
		end := start + batchSize
		if end > len(plan.Rewrites) {
			end = len(plan.Rewrites)
		}
		outcome.Batches++

		if err := s.PresenceRepo.ApplyRewrites(plan.Rewrites[start:end]); err != nil {
			log.Printf("Warning: purge batch %d failed: %v", outcome.Batches, err)
			outcome.FailedBatches++
			utils.PurgeBatchesTotal.WithLabelValues("failed").Inc()
			continue
		}

		utils.PurgeBatchesTotal.WithLabelValues("committed").Inc()
		for i := start; i < end; i++ {
			outcome.PurgedCount += plan.Removed[i]
		}
	}

	utils.PurgedSessionsTotal.Add(float64(outcome.PurgedCount))

	if s.Cache != nil {
		if err := s.Cache.InvalidateSnapshot(); err != nil {
			utils.TrackError("cache", "snapshot_invalidate_failed")
			log.Printf("Warning: failed to invalidate presence snapshot: %v", err)
		}
	}

	kind := model.AuditPurgeCompleted
	if outcome.FailedBatches > 0 {
		kind = model.AuditPurgePartial
	}
	s.audit(kind, exemptUserID, fmt.Sprintf(
		"purged=%d batches=%d failed_batches=%d preserved_exemption=%t",
		outcome.PurgedCount, outcome.Batches, outcome.FailedBatches, outcome.PreservedExemption))

	return outcome
}

func (s *AccessModeService) audit(kind, actorID, detail string) {
	if s.Audit != nil {
		s.Audit.Record(kind, actorID, detail)
	}
}
