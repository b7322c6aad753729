package main

import (
	"context"
	"log"
	"os"

	_ "hradmin/api/swagger" // swagger docs
	"hradmin/internal/database"
	"hradmin/internal/handler"
	"hradmin/internal/middleware"
	"hradmin/internal/repository"
	"hradmin/internal/service"
	"hradmin/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           HR Approval Flow Administration API
// @version         1.0
// @description     API for administering HR form approval flows, approver sequences, and RDF charging assignments.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Permission middleware needs direct DB access for role lookups
	middleware.InitPermissionMiddleware(db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	formRepo := repository.NewFormRepository(db)
	flowRepo := repository.NewFlowRepository(db)
	chargingRepo := repository.NewChargingRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo, db)
	roleService := service.NewRoleService(db)
	flowService := service.NewFlowService(db, flowRepo, userRepo, formRepo, chargingRepo, wsHub)
	chargingService := service.NewChargingService(chargingRepo)
	directoryService := service.NewDirectoryService(userRepo, formRepo)
	submissionService := service.NewSubmissionService(db, submissionRepo, flowRepo, wsHub)
	auditService := service.NewAuditService(auditRepo)

	// Seed defaults (roles, permissions, form catalog)
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		log.Printf("Warning: failed to seed roles and permissions: %v", err)
	}
	if err := database.SeedDefaultForms(db); err != nil {
		log.Printf("Warning: failed to seed form catalog: %v", err)
	}
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := database.SeedDemoChargings(context.Background(), chargingRepo); err != nil {
			log.Printf("Warning: failed to seed demo chargings: %v", err)
		}
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	flowHandler := handler.NewFlowHandler(flowService)
	chargingHandler := handler.NewChargingHandler(chargingService)
	directoryHandler := handler.NewDirectoryHandler(directoryService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	api := router.Group("/api")
	userHandler.RegisterRoutes(api)
	roleHandler.RegisterRoutes(api)
	flowHandler.RegisterRoutes(api)
	chargingHandler.RegisterRoutes(api)
	directoryHandler.RegisterRoutes(api)
	submissionHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
