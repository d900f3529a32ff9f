package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"boutika/internal/domain/approval"
	"boutika/internal/domain/audit"
	"boutika/internal/domain/auth"
	"boutika/internal/domain/catalog"
	"boutika/internal/domain/customers"
	"boutika/internal/domain/expenses"
	"boutika/internal/domain/messaging"
	"boutika/internal/domain/reports"
	"boutika/internal/domain/sales"
	"boutika/internal/platform/config"
	"boutika/internal/platform/db"
	"boutika/internal/platform/email"
	"boutika/internal/platform/jobs"
	approvalshandler "boutika/internal/transport/http/handlers/approvals"
	audithandler "boutika/internal/transport/http/handlers/audit"
	authhandler "boutika/internal/transport/http/handlers/auth"
	cataloghandler "boutika/internal/transport/http/handlers/catalog"
	customershandler "boutika/internal/transport/http/handlers/customers"
	expenseshandler "boutika/internal/transport/http/handlers/expenses"
	jobshandler "boutika/internal/transport/http/handlers/jobs"
	messaginghandler "boutika/internal/transport/http/handlers/messaging"
	reportshandler "boutika/internal/transport/http/handlers/reports"
	saleshandler "boutika/internal/transport/http/handlers/sales"
	teamhandler "boutika/internal/transport/http/handlers/team"
	"boutika/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	thresholds := approval.DefaultThresholds()
	thresholds.MaxItemAge = cfg.ApprovalMaxItemAge
	thresholds.HighStockUnits = cfg.ApprovalHighStockUnits
	thresholds.HighValue = cfg.ApprovalHighValue
	thresholds.HighValueSale = cfg.ApprovalHighValueSale
	thresholds.HistoryPurchases = cfg.ApprovalHistoryPurchases
	thresholds.IngredientStockRatio = cfg.ApprovalIngredientRatio

	mailer := email.New(cfg)
	authStore := auth.NewStore(pool)
	perms := auth.Permissions{}
	auditSvc := audit.New(pool)
	messagingSvc := messaging.New(messaging.NewStore(pool), mailer)
	messagingSvc.DefaultFrom = cfg.EmailFrom
	catalogSvc := catalog.NewService(catalog.NewStore(pool))
	customersSvc := customers.NewService(customers.NewStore(pool))
	salesSvc := sales.NewService(pool)
	expensesSvc := expenses.NewService(pool)
	approvalSvc := approval.NewService(approval.NewStore(pool), thresholds)
	reportsSvc := reports.New(pool)

	jobsSvc := jobs.New(pool, cfg, catalogSvc, approvalSvc, messagingSvc)
	jobsSvc.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.NewRateLimit(cfg.RateLimitPerMin).Handler)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authRate := middleware.NewRateLimit(cfg.AuthRateLimit)
		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret, mailer, cfg.EmailFrom)
		r.With(authRate.Handler).Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.With(authRate.Handler).Post("/auth/request-reset", authHandler.HandleRequestReset)
		r.With(authRate.Handler).Post("/auth/reset", authHandler.HandleResetPassword)

		teamhandler.NewHandler(authStore, perms, auditSvc).RegisterRoutes(r)
		cataloghandler.NewHandler(catalogSvc, approvalSvc, authStore, perms, messagingSvc, auditSvc).RegisterRoutes(r)
		customershandler.NewHandler(customersSvc, approvalSvc, authStore, perms, messagingSvc, auditSvc).RegisterRoutes(r)
		saleshandler.NewHandler(salesSvc, approvalSvc, authStore, perms, messagingSvc, auditSvc, cfg.SeedWorkspaceName, cfg.ReceiptDir).RegisterRoutes(r)
		expenseshandler.NewHandler(expensesSvc, perms, auditSvc).RegisterRoutes(r)
		approvalshandler.NewHandler(approvalSvc, catalogSvc, customersSvc, salesSvc, perms, messagingSvc, auditSvc).RegisterRoutes(r)
		messaginghandler.NewHandler(messagingSvc, perms).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, perms).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
		jobshandler.NewHandler(jobsSvc, perms).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	log.Printf("boutika server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
