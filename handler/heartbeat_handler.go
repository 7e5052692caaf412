package handler

import (
	"errors"
	"io"

	"main/dto"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HeartbeatStore interface {
	RecordHeartbeat(userID, sessionID, deviceLabel string) error
}

// HeartbeatHandler records one activity beat for the caller's browser-tab
// session. The first beat from a new tab has no session id yet; the server
// issues one and the tab keeps it for its lifetime.
func HeartbeatHandler(c *gin.Context, presenceRepo HeartbeatStore) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req dto.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, "Invalid heartbeat payload")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	device := utils.DeviceLabel(c.Request.UserAgent())

	if err := presenceRepo.RecordHeartbeat(userID.(string), sessionID, device); err != nil {
		utils.RetryableError(c, "Failed to record heartbeat")
		return
	}

	utils.Success(c, dto.HeartbeatResponse{SessionID: sessionID})
}
