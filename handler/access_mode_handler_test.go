package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"main/model"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("pin", utils.ValidatePINRule)
	}
}

type fakeModeStore struct {
	mode   *model.AccessMode
	setErr error
}

func (f *fakeModeStore) GetAccessMode() (*model.AccessMode, error) {
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
	records []*model.PresenceRecord
}

func (f *fakePurgeStore) GetAllRecords() ([]*model.PresenceRecord, error) {
	return f.records, nil
}

func (f *fakePurgeStore) ApplyRewrites(rewrites []model.PresenceRewrite) error {
	for _, rw := range rewrites {
		for _, record := range f.records {
			if record.UserID == rw.UserID {
				record.Sessions = rw.Sessions
				record.Online = rw.Online
			}
		}
	}
	return nil
}

type fakeAdminRepo struct {
	admins map[string]*model.AdminUser
	err    error
}

func (f *fakeAdminRepo) FindAdmin(userID string) (*model.AdminUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.admins[userID], nil
}

func newTestContext(t *testing.T, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	c.Request = httptest.NewRequest(http.MethodPost, "/", reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func testAdminFixture(t *testing.T) (*fakeAdminRepo, string) {
	t.Helper()
	pin := "482913"
	hash, err := services.HashPIN(pin)
	if err != nil {
		t.Fatalf("HashPIN failed: %v", err)
	}
	repo := &fakeAdminRepo{admins: map[string]*model.AdminUser{
		"admin-x": {UserID: "admin-x", Username: "xavier", Role: model.RoleAdmin, PINHash: hash},
		"mortal":  {UserID: "mortal", Username: "marge", Role: "player"},
	}}
	return repo, pin
}

func TestActivateSingleUserMode(t *testing.T) {
	sessionX := uuid.New().String()
	sessionY := uuid.New().String()
	sessionZ := uuid.New().String()

	newService := func() (*usecase.AccessModeService, *fakeModeStore, *fakePurgeStore) {
		modes := &fakeModeStore{}
		purge := &fakePurgeStore{records: []*model.PresenceRecord{
			{
				UserID:   "admin-x",
				Sessions: []string{sessionX, sessionY},
				SessionActivity: map[string]time.Time{
					sessionX: time.Now(),
					sessionY: time.Now(),
				},
				Online: true,
			},
			{
				UserID:          "user-y",
				Sessions:        []string{sessionZ},
				SessionActivity: map[string]time.Time{sessionZ: time.Now()},
				Online:          true,
			},
		}}
		service := &usecase.AccessModeService{
			ModeRepo:     modes,
			PresenceRepo: purge,
		}
		return service, modes, purge
	}

	t.Run("ActivatesAndPurges", func(t *testing.T) {
		service, modes, purge := newService()
		adminRepo, pin := testAdminFixture(t)

		c, w := newTestContext(t, map[string]interface{}{
			"preserve_session_id": sessionX,
			"pin":                 pin,
		})
		c.Set("user_id", "admin-x")

		ActivateSingleUserMode(c, service, adminRepo)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if !modes.mode.IsSingleUser() {
			t.Error("Expected single-user mode active")
		}
		if modes.mode.RestrictedToUserID != "admin-x" {
			t.Errorf("Expected restriction to admin-x, got %s", modes.mode.RestrictedToUserID)
		}
		if got := purge.records[0].Sessions; len(got) != 1 || got[0] != sessionX {
			t.Errorf("Expected admin-x to keep only its own session, got %v", got)
		}
		if got := purge.records[1].Sessions; len(got) != 0 {
			t.Errorf("Expected user-y cleared, got %v", got)
		}

		var response utils.Response
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		data, ok := response.Data.(map[string]interface{})
		if !ok {
			t.Fatal("Response data is not in expected format")
		}
		if data["purged_count"].(float64) != 2 {
			t.Errorf("Expected purged_count 2, got %v", data["purged_count"])
		}
		if data["preserved_exemption"] != true {
			t.Error("Expected preserved_exemption true")
		}
	})

	t.Run("RejectsWrongPIN", func(t *testing.T) {
		service, modes, _ := newService()
		adminRepo, _ := testAdminFixture(t)

		c, w := newTestContext(t, map[string]interface{}{"pin": "999999"})
		c.Set("user_id", "admin-x")

		ActivateSingleUserMode(c, service, adminRepo)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
		}
		if modes.mode != nil {
			t.Error("Expected no mode transition after rejected confirmation")
		}
	})

	t.Run("RequiresConfirmationCredential", func(t *testing.T) {
		service, _, _ := newService()
		adminRepo, _ := testAdminFixture(t)

		c, w := newTestContext(t, nil)
		c.Set("user_id", "admin-x")

		ActivateSingleUserMode(c, service, adminRepo)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("RejectsNonAdmin", func(t *testing.T) {
		service, _, _ := newService()
		adminRepo, pin := testAdminFixture(t)

		c, w := newTestContext(t, map[string]interface{}{"pin": pin})
		c.Set("user_id", "mortal")

		ActivateSingleUserMode(c, service, adminRepo)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})

	t.Run("ReportsRetryableOnStoreFailure", func(t *testing.T) {
		service, modes, _ := newService()
		modes.setErr = errors.New("store unavailable")
		adminRepo, pin := testAdminFixture(t)

		c, w := newTestContext(t, map[string]interface{}{"pin": pin})
		c.Set("user_id", "admin-x")

		ActivateSingleUserMode(c, service, adminRepo)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	})
}

func TestDeactivateSingleUserMode(t *testing.T) {
	t.Run("RestoresNormal", func(t *testing.T) {
		now := time.Now()
		modes := &fakeModeStore{mode: &model.AccessMode{
			ID:                 model.AccessModeDocID,
			Mode:               model.ModeSingleUser,
			RestrictedToUserID: "admin-x",
			ActivatedAt:        &now,
		}}
		service := &usecase.AccessModeService{
			ModeRepo:     modes,
			PresenceRepo: &fakePurgeStore{},
		}
		adminRepo, pin := testAdminFixture(t)

		c, w := newTestContext(t, map[string]interface{}{"pin": pin})
		c.Set("user_id", "admin-x")

		DeactivateSingleUserMode(c, service, adminRepo)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if modes.mode.Mode != model.ModeNormal {
			t.Errorf("Expected normal mode, got %s", modes.mode.Mode)
		}
		if modes.mode.RestrictedToUserID != "" {
			t.Error("Expected restriction cleared")
		}
	})

	t.Run("NoOpWhenAlreadyNormal", func(t *testing.T) {
		modes := &fakeModeStore{}
		service := &usecase.AccessModeService{
			ModeRepo:     modes,
			PresenceRepo: &fakePurgeStore{},
		}
		adminRepo, pin := testAdminFixture(t)

		c, w := newTestContext(t, map[string]interface{}{"pin": pin})
		c.Set("user_id", "admin-x")

		DeactivateSingleUserMode(c, service, adminRepo)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
		}
	})
}
