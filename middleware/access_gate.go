package middleware

import (
	"log"

	"main/model"
	"main/utils"

	"github.com/gin-gonic/gin"
)

type AccessModeReader interface {
	GetAccessMode() (*model.AccessMode, error)
}

// SingleUserGateCode is returned so clients can show the maintenance screen
// instead of a generic error.
const SingleUserGateCode = "SINGLE_USER_MODE"

// SingleUserGateMiddleware rejects every caller except the restricted
// administrator while single-user mode is active. The access mode control
// surface itself is registered outside this gate so any admin can always
// deactivate.
//
// A failed mode read fails open: locking the whole application out because
// the store hiccuped would be worse than briefly honoring stale mode state.
func SingleUserGateMiddleware(modes AccessModeReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}

		mode, err := modes.GetAccessMode()
		if err != nil {
			utils.TrackError("database", "access_gate_read_failed")
			log.Printf("Warning: single-user gate could not read access mode: %v", err)
			c.Next()
			return
		}

		if mode.IsSingleUser() && userID.(string) != mode.RestrictedToUserID {
			utils.ForbiddenWithCode(c, "System is in single-user maintenance mode", SingleUserGateCode)
			c.Abort()
			return
		}

		c.Next()
	}
}
