package main

import (
	"fmt"
	"log"
	"os"
	"visitbook-backend/config"
	"visitbook-backend/controllers"
	"visitbook-backend/models"
	"visitbook-backend/routes"
	"visitbook-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Visit{},
		&models.NotificationLog{},
	)
}

func main() {
	gateway := services.NewGatewayClient(services.LoadGatewayConfig())
	reminders := services.NewReminderService(config.DB, gateway)
	controllers.Reminders = reminders

	cronSpec := os.Getenv("REMINDER_CRON")
	if cronSpec == "" {
		cronSpec = "0 8 * * *" // daily at 8 AM
	}
	if _, err := reminders.StartScheduler(cronSpec); err != nil {
		log.Fatalf("Failed to start reminder scheduler: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
