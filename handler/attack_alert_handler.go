package handler

import (
	"fmt"
	"strconv"

	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type AttackAlertStore interface {
	ListAlerts(limit int64) ([]*model.AttackAlert, error)
	AcknowledgeAlert(alertID, actorID string) (bool, error)
	IsAcknowledged(alertID string) (bool, error)
}

type AuditRecorder interface {
	Record(kind, actorID, detail string)
}

// ListAttackAlerts returns the newest alerts raised by the detection
// process, for the admin triage panel.
func ListAttackAlerts(c *gin.Context, alertRepo AttackAlertStore) {
	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 500 {
			utils.BadRequest(c, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	alerts, err := alertRepo.ListAlerts(limit)
	if err != nil {
		utils.RetryableError(c, "Failed to fetch attack alerts")
		return
	}
	if alerts == nil {
		alerts = []*model.AttackAlert{}
	}

	utils.Success(c, gin.H{"alerts": alerts})
}

// AcknowledgeAttackAlert stamps the calling admin onto an alert.
// Acknowledgment is one-shot: a second acknowledge is a conflict.
func AcknowledgeAttackAlert(c *gin.Context, alertRepo AttackAlertStore, audit AuditRecorder) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	alertID := c.Param("id")
	if alertID == "" {
		utils.BadRequest(c, "Alert id required")
		return
	}

	acked, err := alertRepo.AcknowledgeAlert(alertID, userID.(string))
	if err != nil {
		utils.RetryableError(c, "Failed to acknowledge alert")
		return
	}

	if !acked {
		already, err := alertRepo.IsAcknowledged(alertID)
		if err != nil {
			utils.NotFound(c, "Alert not found")
			return
		}
		if already {
			utils.Conflict(c, "Alert already acknowledged")
			return
		}
		utils.NotFound(c, "Alert not found")
		return
	}

	if audit != nil {
		audit.Record(model.AuditAlertAcked, userID.(string), fmt.Sprintf("alert_id=%s", alertID))
	}

	utils.Success(c, gin.H{"message": "Alert acknowledged"})
}
