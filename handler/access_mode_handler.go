package handler

import (
	"errors"
	"fmt"
	"io"

	"main/dto"
	"main/model"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type AdminFinder interface {
	FindAdmin(userID string) (*model.AdminUser, error)
}

// GetAccessMode returns the current global access mode record.
func GetAccessMode(c *gin.Context, accessService *usecase.AccessModeService) {
	mode, err := accessService.Current()
	if err != nil {
		utils.RetryableError(c, "Failed to read access mode")
		return
	}
	utils.Success(c, dto.ToAccessModeResponse(mode))
}

// ActivateSingleUserMode enters single-user mode and purges all other
// sessions. Requires a step-up confirmation (PIN or TOTP) on top of the
// admin token.
func ActivateSingleUserMode(c *gin.Context, accessService *usecase.AccessModeService, adminRepo AdminFinder) {
	var req dto.ActivateSingleUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, "Invalid request")
		return
	}

	admin, ok := confirmAdminCaller(c, adminRepo, req.PIN, req.TOTPCode)
	if !ok {
		return
	}

	result, err := accessService.Activate(admin.UserID, req.PreserveSessionID)
	if err != nil {
		utils.RetryableError(c, "Failed to activate single-user mode")
		return
	}

	response := dto.ActivationResponse{
		AccessModeResponse: dto.ToAccessModeResponse(result.Mode),
		PurgedCount:        result.PurgedCount,
		PreservedExemption: result.PreservedExemption,
		FailedBatches:      result.FailedBatches,
	}

	if result.FailedBatches > 0 {
		utils.Success(c, gin.H{
			"message": fmt.Sprintf("activation completed with %d sessions purged, %d batch(es) failed",
				result.PurgedCount, result.FailedBatches),
			"result": response,
		})
		return
	}

	utils.Success(c, response)
}

// DeactivateSingleUserMode returns the system to normal mode. Any verified
// administrator may deactivate, with the same step-up confirmation.
func DeactivateSingleUserMode(c *gin.Context, accessService *usecase.AccessModeService, adminRepo AdminFinder) {
	var req dto.DeactivateSingleUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, "Invalid request")
		return
	}

	admin, ok := confirmAdminCaller(c, adminRepo, req.PIN, req.TOTPCode)
	if !ok {
		return
	}

	mode, err := accessService.Deactivate(admin.UserID)
	if err != nil {
		utils.RetryableError(c, "Failed to deactivate single-user mode")
		return
	}

	utils.Success(c, dto.ToAccessModeResponse(mode))
}

// confirmAdminCaller resolves the caller to a stored admin identity and
// verifies the step-up credential. Writes the error response itself and
// returns ok=false when the caller must not proceed.
func confirmAdminCaller(c *gin.Context, adminRepo AdminFinder, pin, totpCode string) (*model.AdminUser, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return nil, false
	}

	admin, err := adminRepo.FindAdmin(userID.(string))
	if err != nil {
		utils.RetryableError(c, "Failed to verify administrator")
		return nil, false
	}
	if !admin.IsAdmin() {
		utils.Forbidden(c, "Administrator access required")
		return nil, false
	}

	if err := services.ConfirmAdmin(admin, pin, totpCode); err != nil {
		if errors.Is(err, services.ErrConfirmationRequired) {
			utils.BadRequest(c, "PIN or TOTP code required")
		} else {
			utils.Forbidden(c, "Confirmation rejected")
		}
		return nil, false
	}

	return admin, true
}
