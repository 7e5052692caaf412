package handler

import (
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// GetSystemStatus reports store connectivity and host load for the admin
// status panel.
func GetSystemStatus(c *gin.Context, cache *services.PresenceCache) {
	mongoOK := utils.PingMongo() == nil
	redisOK := cache.IsConnected()

	status := "ok"
	if !mongoOK || !redisOK {
		status = "degraded"
	}

	utils.Success(c, gin.H{
		"status":          status,
		"mongo_connected": mongoOK,
		"redis_connected": redisOK,
		"cpu_percent":     utils.GetCPUUsage(),
	})
}
