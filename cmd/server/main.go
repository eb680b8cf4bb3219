package main

import (
	"log"
	"os"
	"time"

	"go-giftstock/internal/database"
	"go-giftstock/internal/handlers"
	"go-giftstock/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal(err)
	}

	h := handlers.New(db)
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)

	// Only opens if we explicitly allow it in .env
	if os.Getenv("ALLOW_REGISTRATION") == "true" {
		r.POST("/register", h.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// STAFF & ADMIN
		api.GET("/products", h.GetProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/:id/history", h.GetProductHistory)
		api.POST("/products/:id/sale", h.SellProduct)
		api.POST("/sales/:id/return", h.ReturnProduct)

		api.GET("/packaging", h.GetPackagingMaterials)
		api.GET("/packaging/:id", h.GetPackagingMaterial)
		api.GET("/packaging/:id/history", h.GetPackagingHistory)

		api.GET("/gift-sets", h.GetGiftSets)
		api.GET("/gift-sets/:id", h.GetGiftSet)
		api.GET("/gift-sets/:id/sale", h.GetGiftSetSale)
		api.POST("/gift-sets", h.CreateGiftSet)
		api.POST("/gift-sets/:id/sell", h.SellGiftSet)
		api.DELETE("/gift-sets/:id", h.DismantleGiftSet)

		api.GET("/suppliers", h.GetSuppliers)
		api.GET("/customers", h.GetCustomers)
		api.POST("/suppliers", h.AddSupplier)
		api.POST("/customers", h.AddCustomer)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/ask", h.AskAI)

			admin.POST("/products/purchase", h.PurchaseProduct)
			admin.POST("/packaging/purchase", h.PurchasePackaging)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.DELETE("/packaging/:id", h.DeletePackaging)

			admin.GET("/investments", h.GetInvestments)
			admin.POST("/investments", h.AddInvestment)
			admin.DELETE("/investments/:id", h.DeleteInvestment)

			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/monthly", h.GetMonthlyReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
			admin.GET("/reports/reconciliation", h.GetReconciliation)
		}
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	log.Println("🚀 Server starting on " + baseURL)
	if err := r.Run(":8080"); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
