package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/config"
	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	appHTTP "github.com/agilabus/ftms-backend-go/internal/handler/http"
	"github.com/agilabus/ftms-backend-go/internal/pkg/auditlog"
	"github.com/agilabus/ftms-backend-go/internal/pkg/database"
	"github.com/agilabus/ftms-backend-go/internal/pkg/hrcache"
	"github.com/agilabus/ftms-backend-go/internal/pkg/hrclient"
	"github.com/agilabus/ftms-backend-go/internal/pkg/jwt"
	"github.com/agilabus/ftms-backend-go/internal/pkg/outbound"
	"github.com/agilabus/ftms-backend-go/internal/repository/postgresql"
	periodService "github.com/agilabus/ftms-backend-go/internal/service/period"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	periodRepo := postgresql.NewPeriodRepository(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)

	dispatcher := outbound.NewDispatcher(
		cfg.Outbound.QueueSize,
		cfg.Outbound.MaxRetries,
		cfg.Outbound.Backoff,
		30*time.Second,
	)
	dispatcher.Start()
	defer dispatcher.Stop()

	hrAPI := hrclient.NewClient(cfg.HR.BaseURL, cfg.HR.APIKey, cfg.HR.Timeout)

	var hrSource hrsync.Source
	switch cfg.HR.SourceType {
	case "http":
		hrSource = hrAPI
	case "sqlite":
		hrSource, err = hrcache.NewReadCache(cfg.HR.CachePath)
		if err != nil {
			log.Fatal("Failed to open HR read cache:", err)
		}
	default:
		log.Fatal("Unsupported HR source type: ", cfg.HR.SourceType)
	}

	hrNotifier := hrclient.NewAsyncNotifier(hrAPI, dispatcher)
	auditLogger := auditlog.NewClient(cfg.Audit.BaseURL, cfg.Audit.APIKey, cfg.Audit.Timeout, dispatcher)

	periodSvc := periodService.NewPeriodService(periodRepo, hrSource, hrNotifier, auditLogger)

	periodHandler := appHTTP.NewPeriodHandler(periodSvc)

	router := appHTTP.NewRouter(cfg, jwtService, periodHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
