package handler

import (
	"main/dto"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// GetActivePresence feeds the online-sessions dashboard: every live
// identity-resolved session plus the raw live-session count.
func GetActivePresence(c *gin.Context, presenceService *usecase.PresenceService) {
	summary, err := presenceService.Snapshot()
	if err != nil {
		utils.RetryableError(c, "Failed to fetch presence")
		return
	}

	utils.Success(c, dto.PresenceResponse{
		ActiveSessions: summary.ActiveSessions,
		TotalLiveCount: summary.TotalLiveCount,
	})
}
