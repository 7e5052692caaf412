package usecase

import (
	"errors"
	"sort"
	"testing"
	"time"

	"main/model"
)

type fakeModeStore struct {
	mode   *model.AccessMode
	getErr error
	setErr error
}

func (f *fakeModeStore) GetAccessMode() (*model.AccessMode, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.mode == nil {
		return model.DefaultAccessMode(), nil
	}
	return f.mode, nil
}

func (f *fakeModeStore) SetAccessMode(mode *model.AccessMode) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mode = mode
	return nil
}

type fakePurgeStore struct {
	records     map[string]*model.PresenceRecord
	getErr      error
	failBatches map[int]bool // 1-based ApplyRewrites call numbers to fail
	applyCalls  int
}

func (f *fakePurgeStore) GetAllRecords() ([]*model.PresenceRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	ids := make([]string, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	records := make([]*model.PresenceRecord, 0, len(ids))
	for _, id := range ids {
		copied := *f.records[id]
		records = append(records, &copied)
	}
	return records, nil
}

func (f *fakePurgeStore) ApplyRewrites(rewrites []model.PresenceRewrite) error {
	f.applyCalls++
	if f.failBatches[f.applyCalls] {
		return errors.New("bulk write failed")
	}
	for _, rw := range rewrites {
		record, ok := f.records[rw.UserID]
		if !ok {
			continue
		}
		record.Sessions = rw.Sessions
		record.Online = rw.Online
	}
	return nil
}

type recordedEvent struct {
	kind    string
	actorID string
	detail  string
}

type fakeAudit struct {
	events []recordedEvent
}

func (f *fakeAudit) Record(kind, actorID, detail string) {
	f.events = append(f.events, recordedEvent{kind, actorID, detail})
}

func presenceFixture() map[string]*model.PresenceRecord {
	return map[string]*model.PresenceRecord{
		"admin-x": {
			UserID:   "admin-x",
			Sessions: []string{"sx", "sy"},
			SessionActivity: map[string]time.Time{
				"sx": time.Now(),
				"sy": time.Now(),
			},
			Online: true,
		},
		"user-y": {
			UserID:   "user-y",
			Sessions: []string{"sz"},
			SessionActivity: map[string]time.Time{
				"sz": time.Now(),
			},
			Online: true,
		},
	}
}

func TestPlanPurge(t *testing.T) {
	t.Run("ExemptSessionSurvivesAlone", func(t *testing.T) {
		store := &fakePurgeStore{records: presenceFixture()}
		records, _ := store.GetAllRecords()

		plan := PlanPurge(records, "admin-x", "sx")

		if !plan.PreservedExemption {
			t.Error("Expected exemption to be preserved")
		}
		if plan.TotalRemoved != 2 {
			t.Errorf("Expected 2 removed sessions, got %d", plan.TotalRemoved)
		}
		for i, rw := range plan.Rewrites {
			if rw.UserID == "admin-x" {
				if len(rw.Sessions) != 1 || rw.Sessions[0] != "sx" {
					t.Errorf("Expected admin-x rewrite to keep only sx, got %v", rw.Sessions)
				}
				if !rw.Online {
					t.Error("Expected exempted record to stay online")
				}
			} else {
				if len(rw.Sessions) != 0 || rw.Online {
					t.Errorf("Expected rewrite %d to clear sessions, got %v online=%t",
						i, rw.Sessions, rw.Online)
				}
			}
		}
	})

	t.Run("MissingExemptSessionPurgesEverything", func(t *testing.T) {
		store := &fakePurgeStore{records: presenceFixture()}
		records, _ := store.GetAllRecords()

		plan := PlanPurge(records, "admin-x", "not-there")

		if plan.PreservedExemption {
			t.Error("Expected exemption miss to be reported")
		}
		if plan.TotalRemoved != 3 {
			t.Errorf("Expected all 3 sessions removed, got %d", plan.TotalRemoved)
		}
		for _, rw := range plan.Rewrites {
			if len(rw.Sessions) != 0 || rw.Online {
				t.Errorf("Expected full purge for %s, got %v", rw.UserID, rw.Sessions)
			}
		}
	})

	t.Run("NoExemptionPurgesEverything", func(t *testing.T) {
		store := &fakePurgeStore{records: presenceFixture()}
		records, _ := store.GetAllRecords()

		plan := PlanPurge(records, "", "")

		if plan.PreservedExemption {
			t.Error("Expected no preserved exemption")
		}
		if plan.TotalRemoved != 3 {
			t.Errorf("Expected all 3 sessions removed, got %d", plan.TotalRemoved)
		}
	})

	t.Run("AlreadyEmptyRecordsAreSkipped", func(t *testing.T) {
		records := []*model.PresenceRecord{
			{UserID: "user-a", Sessions: []string{}, Online: false},
		}

		plan := PlanPurge(records, "", "")

		if len(plan.Rewrites) != 0 {
			t.Errorf("Expected no rewrites for purged records, got %d", len(plan.Rewrites))
		}
	})
}

func newAccessService(modes *fakeModeStore, purge *fakePurgeStore, audit *fakeAudit) *AccessModeService {
	return &AccessModeService{
		ModeRepo:     modes,
		PresenceRepo: purge,
		Audit:        audit,
		BatchSize:    1,
	}
}

func TestActivate(t *testing.T) {
	t.Run("PurgesAllButPreservedSession", func(t *testing.T) {
		modes := &fakeModeStore{}
		purge := &fakePurgeStore{records: presenceFixture()}
		audit := &fakeAudit{}
		service := newAccessService(modes, purge, audit)

		result, err := service.Activate("admin-x", "sx")
		if err != nil {
			t.Fatalf("Activate failed: %v", err)
		}

		if result.Mode.Mode != model.ModeSingleUser {
			t.Errorf("Expected single-user mode, got %s", result.Mode.Mode)
		}
		if result.Mode.RestrictedToUserID != "admin-x" {
			t.Errorf("Expected restriction to admin-x, got %s", result.Mode.RestrictedToUserID)
		}
		if result.Mode.ActivatedAt == nil {
			t.Error("Expected activation timestamp")
		}
		if result.PurgedCount != 2 {
			t.Errorf("Expected 2 purged sessions, got %d", result.PurgedCount)
		}
		if !result.PreservedExemption {
			t.Error("Expected exemption preserved")
		}
		if result.FailedBatches != 0 {
			t.Errorf("Expected no failed batches, got %d", result.FailedBatches)
		}

		if got := purge.records["admin-x"].Sessions; len(got) != 1 || got[0] != "sx" {
			t.Errorf("Expected admin-x to keep only sx, got %v", got)
		}
		if got := purge.records["user-y"].Sessions; len(got) != 0 {
			t.Errorf("Expected user-y cleared, got %v", got)
		}
		if purge.records["user-y"].Online {
			t.Error("Expected user-y offline")
		}
	})

	t.Run("IsIdempotent", func(t *testing.T) {
		modes := &fakeModeStore{}
		purge := &fakePurgeStore{records: presenceFixture()}
		service := newAccessService(modes, purge, &fakeAudit{})

		first, err := service.Activate("admin-x", "sx")
		if err != nil {
			t.Fatalf("First activate failed: %v", err)
		}
		second, err := service.Activate("admin-x", "sx")
		if err != nil {
			t.Fatalf("Second activate failed: %v", err)
		}

		if second.Mode.Mode != model.ModeSingleUser || second.Mode.RestrictedToUserID != "admin-x" {
			t.Error("Expected second activation to land in the same state")
		}
		if second.PurgedCount > first.PurgedCount {
			t.Errorf("Expected second purge (%d) <= first purge (%d)",
				second.PurgedCount, first.PurgedCount)
		}
		if second.PurgedCount != 0 {
			t.Errorf("Expected second purge to remove nothing, got %d", second.PurgedCount)
		}
	})

	t.Run("ModeWriteFailureLeavesStateUnchanged", func(t *testing.T) {
		modes := &fakeModeStore{setErr: errors.New("store unavailable")}
		purge := &fakePurgeStore{records: presenceFixture()}
		service := newAccessService(modes, purge, &fakeAudit{})

		if _, err := service.Activate("admin-x", "sx"); err == nil {
			t.Fatal("Expected activation to fail")
		}

		if modes.mode != nil {
			t.Error("Expected mode record untouched after write failure")
		}
		if purge.applyCalls != 0 {
			t.Error("Expected no purge writes after mode write failure")
		}
		if got := purge.records["user-y"].Sessions; len(got) != 1 {
			t.Errorf("Expected presence untouched, got %v", got)
		}
	})

	t.Run("FailedBatchesAreReportedNotRolledBack", func(t *testing.T) {
		modes := &fakeModeStore{}
		purge := &fakePurgeStore{
			records:     presenceFixture(),
			failBatches: map[int]bool{2: true},
		}
		audit := &fakeAudit{}
		service := newAccessService(modes, purge, audit)

		result, err := service.Activate("admin-x", "")
		if err != nil {
			t.Fatalf("Activate failed: %v", err)
		}

		if result.Batches != 2 {
			t.Fatalf("Expected 2 batches with batch size 1, got %d", result.Batches)
		}
		if result.FailedBatches != 1 {
			t.Errorf("Expected 1 failed batch, got %d", result.FailedBatches)
		}
		// Only the committed batch's removals count.
		if result.PurgedCount != 2 {
			t.Errorf("Expected 2 purged sessions from the committed batch, got %d", result.PurgedCount)
		}

		partial := false
		for _, event := range audit.events {
			if event.kind == model.AuditPurgePartial {
				partial = true
			}
		}
		if !partial {
			t.Error("Expected partial purge audit event")
		}
	})

	t.Run("PresenceReadFailureStillActivates", func(t *testing.T) {
		modes := &fakeModeStore{}
		purge := &fakePurgeStore{getErr: errors.New("store unavailable")}
		service := newAccessService(modes, purge, &fakeAudit{})

		result, err := service.Activate("admin-x", "sx")
		if err != nil {
			t.Fatalf("Activate failed: %v", err)
		}
		if !modes.mode.IsSingleUser() {
			t.Error("Expected mode transition despite purge read failure")
		}
		if result.FailedBatches == 0 {
			t.Error("Expected the failed purge to be reported")
		}
	})
}

func TestDeactivate(t *testing.T) {
	t.Run("RestoresNormalMode", func(t *testing.T) {
		modes := &fakeModeStore{}
		purge := &fakePurgeStore{records: presenceFixture()}
		audit := &fakeAudit{}
		service := newAccessService(modes, purge, audit)

		if _, err := service.Activate("admin-x", "sx"); err != nil {
			t.Fatalf("Activate failed: %v", err)
		}

		mode, err := service.Deactivate("admin-y")
		if err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}

		if mode.Mode != model.ModeNormal {
			t.Errorf("Expected normal mode, got %s", mode.Mode)
		}
		if mode.RestrictedToUserID != "" {
			t.Errorf("Expected restriction cleared, got %s", mode.RestrictedToUserID)
		}
		if mode.ActivatedAt != nil {
			t.Error("Expected activation timestamp cleared")
		}
	})

	t.Run("NoOpWhenAlreadyNormal", func(t *testing.T) {
		modes := &fakeModeStore{}
		service := newAccessService(modes, &fakePurgeStore{}, &fakeAudit{})

		mode, err := service.Deactivate("admin-x")
		if err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		if mode.Mode != model.ModeNormal {
			t.Errorf("Expected normal mode, got %s", mode.Mode)
		}
		if modes.mode != nil {
			t.Error("Expected no write for a no-op deactivation")
		}
	})
}
