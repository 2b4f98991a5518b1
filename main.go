package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/aj9599/rental-billing/apiclient"
	"github.com/aj9599/rental-billing/config"
	"github.com/aj9599/rental-billing/crypto"
	"github.com/aj9599/rental-billing/database"
	"github.com/aj9599/rental-billing/handlers"
	"github.com/aj9599/rental-billing/middleware"
	"github.com/aj9599/rental-billing/notify"
	"github.com/aj9599/rental-billing/services"
)

func main() {
	log.Println("Starting Rental Billing Console...")
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	key, err := crypto.GetEncryptionKey(cfg.SessionEncryptionKey)
	if err != nil {
		log.Fatalf("Failed to load session encryption key: %v", err)
	}
	sessions := database.NewSessionStore(db, key)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go purgeSessions(ctx, sessions)

	messages := services.GetTranslations(cfg.DefaultLanguage).Errors
	api := apiclient.New(apiclient.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.RequestTimeout,
		Messages: &messages,
	})

	bus := notify.NewBus()
	guard := services.NewSubmitGuard()
	invoiceService := services.NewInvoiceService(bus, guard, cfg.Tariff)
	meterService := services.NewMeterReadingService(bus, guard, cfg.MeterSaveDelay)
	pdfGenerator := services.NewPDFGenerator(cfg.PDFFontPath, services.BankAccount{
		BIN:           cfg.Bank.BIN,
		AccountNumber: cfg.Bank.AccountNumber,
		AccountHolder: cfg.Bank.AccountHolder,
		BankName:      cfg.Bank.Name,
	})

	var collector *services.MQTTCollector
	if cfg.MQTTBroker != "" {
		collector = services.NewMQTTCollector(db, services.MQTTConfig{
			BrokerURL: cfg.MQTTBroker,
			Topic:     cfg.MQTTTopic,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
		})
		go collector.Start()
		defer collector.Stop()
	}

	// A nil interface, not a nil *AutoBillingScheduler, keeps Run answering 503.
	var runner handlers.AutoBillingRunner
	if cfg.AutoBillingToken != "" {
		scheduler := services.NewAutoBillingScheduler(db, api.WithTokens(apiclient.StaticToken(cfg.AutoBillingToken)),
			bus, cfg.Tariff, cfg.DefaultLanguage)
		scheduler.Start()
		defer scheduler.Stop()
		runner = scheduler
	} else {
		log.Println("[AUTO-BILLING] AUTO_BILLING_TOKEN not set, scheduled billing disabled")
	}

	console := &handlers.Console{
		DB:              db,
		API:             api,
		Sessions:        sessions,
		DefaultLanguage: cfg.DefaultLanguage,
	}

	authHandler := handlers.NewAuthHandler(console, cfg.JWTSecret, handlers.DefaultSessionTTL)
	billingHandler := handlers.NewBillingHandler(console, invoiceService)
	invoiceHandler := handlers.NewInvoiceHandler(console, invoiceService, pdfGenerator)
	exportHandler := handlers.NewExportHandler(console, invoiceService)
	meterHandler := handlers.NewMeterReadingHandler(console, meterService, collector)
	resourceHandler := handlers.NewResourceHandler(console, bus, guard)
	customerHandler := handlers.NewCustomerHandler(console, bus, guard)
	autoBillingHandler := handlers.NewAutoBillingHandler(console, runner, guard, cfg.Tariff)
	dashboardHandler := handlers.NewDashboardHandler(console)
	submitStateHandler := handlers.NewSubmitStateHandler(console, guard)
	notificationHandler := handlers.NewNotificationHandler(console, bus, cfg.AllowedOrigins)

	r := mux.NewRouter()

	r.Use(middleware.Recover)
	r.Use(middleware.Logging)

	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/health", healthCheck).Methods("GET")

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret, sessions))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/auth/language", authHandler.SetLanguage).Methods("PUT")

	protected.HandleFunc("/billing/tariff/defaults", billingHandler.TariffDefaults).Methods("GET")
	protected.HandleFunc("/billing/preview", billingHandler.Preview).Methods("POST")
	protected.HandleFunc("/billing/preview-bulk", billingHandler.PreviewBulk).Methods("POST")

	protected.HandleFunc("/invoices", invoiceHandler.List).Methods("GET")
	protected.HandleFunc("/invoices", invoiceHandler.Create).Methods("POST")
	protected.HandleFunc("/invoices/statistics", invoiceHandler.Statistics).Methods("GET")
	protected.HandleFunc("/invoices/bulk", invoiceHandler.Bulk).Methods("POST")
	protected.HandleFunc("/invoices/{id:[0-9]+}", invoiceHandler.Get).Methods("GET")
	protected.HandleFunc("/invoices/{id:[0-9]+}", invoiceHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/invoices/{id:[0-9]+}/charges", invoiceHandler.AddCharge).Methods("POST")
	protected.HandleFunc("/invoices/{id:[0-9]+}/payments", invoiceHandler.RecordPayment).Methods("POST")
	protected.HandleFunc("/invoices/{id:[0-9]+}/pdf", invoiceHandler.DownloadPDF).Methods("GET")
	protected.HandleFunc("/export", exportHandler.ExportData).Methods("GET")

	protected.HandleFunc("/meter-readings", meterHandler.List).Methods("GET")
	protected.HandleFunc("/meter-readings/batch", meterHandler.SaveBatch).Methods("POST")
	protected.HandleFunc("/meter-readings/staged", meterHandler.Staged).Methods("GET")
	protected.HandleFunc("/meters/status", meterHandler.Status).Methods("GET")

	protected.HandleFunc("/customer/profile", customerHandler.Profile).Methods("GET")
	protected.HandleFunc("/customer/invoices", customerHandler.Invoices).Methods("GET")
	protected.HandleFunc("/customer/maintenance", customerHandler.MaintenanceRequests).Methods("GET")
	protected.HandleFunc("/customer/maintenance", customerHandler.RequestMaintenance).Methods("POST")

	protected.HandleFunc("/auto-billing", autoBillingHandler.List).Methods("GET")
	protected.HandleFunc("/auto-billing", autoBillingHandler.Create).Methods("POST")
	protected.HandleFunc("/auto-billing/{id:[0-9]+}", autoBillingHandler.Update).Methods("PUT")
	protected.HandleFunc("/auto-billing/{id:[0-9]+}", autoBillingHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/auto-billing/{id:[0-9]+}/run", autoBillingHandler.Run).Methods("POST")

	protected.HandleFunc("/dashboard", dashboardHandler.GetStats).Methods("GET")
	protected.HandleFunc("/logs", dashboardHandler.GetLogs).Methods("GET")
	protected.HandleFunc("/submit-state", submitStateHandler.Get).Methods("GET")
	protected.HandleFunc("/notifications/ws", notificationHandler.Stream).Methods("GET")

	// Generic resources last so the specific paths above win.
	resource := "/" + handlers.ResourcePattern()
	protected.HandleFunc(resource, resourceHandler.List).Methods("GET")
	protected.HandleFunc(resource, resourceHandler.Create).Methods("POST")
	protected.HandleFunc(resource+"/{id:[0-9]+}", resourceHandler.Get).Methods("GET")
	protected.HandleFunc(resource+"/{id:[0-9]+}", resourceHandler.Update).Methods("PUT")
	protected.HandleFunc(resource+"/{id:[0-9]+}", resourceHandler.Delete).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      c.Handler(r),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  180 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.ServerAddress)
		log.Printf("Backend API: %s", cfg.APIBaseURL)
		log.Println("===========================================")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARNING: Graceful shutdown failed: %v", err)
	}
}

func purgeSessions(ctx context.Context, sessions *database.SessionStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				log.Printf("WARNING: Failed to purge expired sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Purged %d expired sessions", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
