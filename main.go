package main

import (
	"encoding/json"
	"html/template"
	"log"

	"github.com/gin-gonic/gin"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/handlers"
	"bookshelf/internal/logger"
	"bookshelf/internal/metrics"
	"bookshelf/internal/middleware"
	"bookshelf/internal/models"
	"bookshelf/internal/session"
	"bookshelf/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The only unrecoverable case: without backend credentials
		// nothing can work.
		log.Fatal("Failed to load configuration: ", err)
	}

	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())

	collector := metrics.NewCollector()

	gateway, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, collector)
	if err != nil {
		log.Fatal("Failed to create backend gateway: ", err)
	}

	sessions := session.NewManager(gateway, cfg.SessionDuration)
	engine := catalog.NewEngine(gateway)

	sessions.OnChange(func(sess *models.Session) {
		if sess == nil {
			logger.Info("session ended")
		} else {
			logger.Info("session active", "user_id", sess.User.ID)
		}
	})

	r := gin.New()
	r.Use(gin.Recovery())

	funcMap := template.FuncMap{
		"jsonify": func(v interface{}) template.JS {
			bytes, _ := json.Marshal(v)
			return template.JS(bytes)
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"sequence": func(n int) []int {
			result := make([]int, n)
			for i := 0; i < n; i++ {
				result[i] = i
			}
			return result
		},
		"displayTitle": catalog.DisplayTitle,
		"formatISBN":   catalog.FormatISBN,
		"formatPrice":  catalog.FormatPrice,
	}

	r.SetFuncMap(funcMap)
	r.LoadHTMLGlob("templates/*.html")
	r.Static("/static", "./static")

	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg))

	handlers.SetupRoutes(r, &handlers.Services{
		Config:   cfg,
		Gateway:  gateway,
		Sessions: sessions,
		Catalog:  engine,
		Metrics:  collector,
	})

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(r.Run(":" + cfg.Port))
}
