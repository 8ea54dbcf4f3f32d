package controllers

import (
	"net/http"
	"time"

	"rescuenet/models"
	"rescuenet/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthController struct {
	mongoClient *mongo.Client
	redisClient *redis.Client
	hub         *websocket.Hub
	version     string
}

func NewHealthController(mongoClient *mongo.Client, redisClient *redis.Client, hub *websocket.Hub, version string) *HealthController {
	return &HealthController{
		mongoClient: mongoClient,
		redisClient: redisClient,
		hub:         hub,
		version:     version,
	}
}

// Health handles GET /health. A degraded dependency flips the overall status
// but the endpoint itself always answers 200 so load balancers can read it.
func (hc *HealthController) Health(c *gin.Context) {
	services := make(map[string]string)
	status := "healthy"

	if hc.mongoClient != nil {
		if err := hc.mongoClient.Ping(c.Request.Context(), nil); err != nil {
			services["mongodb"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			services["mongodb"] = "healthy"
		}
	}

	if hc.redisClient != nil {
		if err := hc.redisClient.Ping(c.Request.Context()).Err(); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			services["redis"] = "healthy"
		}
	}

	if hc.hub != nil {
		services["websocket"] = "healthy"
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Version:   hc.version,
	})
}
