package routes

import (
	"rescuenet/config"
	"rescuenet/controllers"
	"rescuenet/middleware"
	"rescuenet/repositories"
	"rescuenet/services"
	"rescuenet/utils"
	"rescuenet/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRoutes wires repositories, services, and controllers, then mounts the
// HTTP surface.
func SetupRoutes(cfg *config.Config, client *mongo.Client, db *mongo.Database, redisClient *redis.Client, hub *websocket.Hub) (*gin.Engine, *services.AlertService) {
	router := gin.New()

	repos := initializeRepositories(db)
	svcs := initializeServices(cfg, repos, redisClient, hub)
	ctrls := initializeControllers(cfg, svcs, client, redisClient, hub)

	setupGlobalMiddleware(router, cfg, redisClient)

	setupPublicRoutes(router, ctrls, redisClient)
	setupAuthenticatedRoutes(router, ctrls, svcs, redisClient)
	setupWebSocketRoutes(router, ctrls)

	return router, svcs.Alert
}

type Repositories struct {
	Alert   *repositories.AlertRepository
	History *repositories.AlertHistoryRepository
	User    *repositories.UserRepository
	Contact *repositories.ContactRepository
}

func initializeRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Alert:   repositories.NewAlertRepository(db),
		History: repositories.NewAlertHistoryRepository(db),
		User:    repositories.NewUserRepository(db),
		Contact: repositories.NewContactRepository(db),
	}
}

type Services struct {
	Alert    *services.AlertService
	History  *services.HistoryService
	Location *services.LocationService
	Auth     *services.AuthService
	Contact  *services.ContactService
	SMS      *services.SMSService
	JWT      *utils.JWTService
}

func initializeServices(cfg *config.Config, repos *Repositories, redisClient *redis.Client, hub *websocket.Hub) *Services {
	jwtService := utils.NewJWTService(cfg.JWTSecret)
	smsService := services.NewSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)

	return &Services{
		Alert:    services.NewAlertService(repos.Alert, repos.History, hub, smsService, redisClient),
		History:  services.NewHistoryService(repos.History, repos.Alert),
		Location: services.NewLocationService(repos.Alert, hub),
		Auth:     services.NewAuthService(repos.User, jwtService),
		Contact:  services.NewContactService(repos.Contact),
		SMS:      smsService,
		JWT:      jwtService,
	}
}

type Controllers struct {
	Alert     *controllers.AlertController
	History   *controllers.HistoryController
	Auth      *controllers.AuthController
	Contact   *controllers.ContactController
	Health    *controllers.HealthController
	WebSocket *controllers.WebSocketController
}

func initializeControllers(cfg *config.Config, svcs *Services, client *mongo.Client, redisClient *redis.Client, hub *websocket.Hub) *Controllers {
	return &Controllers{
		Alert:     controllers.NewAlertController(svcs.Alert, svcs.Location),
		History:   controllers.NewHistoryController(svcs.History),
		Auth:      controllers.NewAuthController(svcs.Auth),
		Contact:   controllers.NewContactController(svcs.Contact),
		Health:    controllers.NewHealthController(client, redisClient, hub, cfg.Version),
		WebSocket: controllers.NewWebSocketController(hub),
	}
}

func setupGlobalMiddleware(router *gin.Engine, cfg *config.Config, redisClient *redis.Client) {
	router.Use(gin.Recovery())
	router.Use(middleware.DefaultLoggerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Environment))
	router.Use(middleware.DefaultRateLimit(redisClient))
}

func setupPublicRoutes(router *gin.Engine, ctrls *Controllers, redisClient *redis.Client) {
	router.GET("/health", ctrls.Health.Health)

	public := router.Group("/api/v1")
	{
		SetupAuthRoutes(public, ctrls.Auth, redisClient)

		// Alert creation and location pushes are open so a citizen can report
		// without an account.
		SetupAlertRoutes(public, ctrls.Alert, redisClient)
		SetupHistoryRoutes(public, ctrls.History)
	}
}

func setupAuthenticatedRoutes(router *gin.Engine, ctrls *Controllers, svcs *Services, redisClient *redis.Client) {
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(svcs.JWT))

	api.GET("/auth/me", ctrls.Auth.GetProfile)

	SetupContactRoutes(api, ctrls.Contact)
}

func setupWebSocketRoutes(router *gin.Engine, ctrls *Controllers) {
	router.GET("/ws", ctrls.WebSocket.HandleConnection)
}
