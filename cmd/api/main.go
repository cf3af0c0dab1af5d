package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ariefcatur/go-restaurant-orders/internal/about"
	"github.com/ariefcatur/go-restaurant-orders/internal/auth"
	"github.com/ariefcatur/go-restaurant-orders/internal/config"
	"github.com/ariefcatur/go-restaurant-orders/internal/httpx"
	"github.com/ariefcatur/go-restaurant-orders/internal/identity"
	"github.com/ariefcatur/go-restaurant-orders/internal/invoice"
	kafkax "github.com/ariefcatur/go-restaurant-orders/internal/kafka"
	"github.com/ariefcatur/go-restaurant-orders/internal/menu"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	loc, err := time.LoadLocation(cfg.InvoiceTimezone)
	if err != nil {
		log.Printf("invoice timezone %q: %v, using UTC", cfg.InvoiceTimezone, err)
		loc = time.UTC
	}

	// Auth
	ids := identity.NewService(db, rdb, cfg.SessionTTL)
	ids.RegisterConfigured(cfg)
	flags := auth.NewRedisSessionStore(rdb)
	if err := flags.Init(ctx); err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer flags.Teardown()
	resolver := &auth.Resolver{
		Identity:       ids,
		Admins:         &auth.CachedAdmins{Lookup: &auth.AdminRepo{DB: db}, Redis: rdb},
		Flags:          flags,
		LegacyPassword: cfg.AdminPassword,
	}
	unwatch := resolver.Watch(ids)
	defer unwatch()
	if cfg.AdminPassword == "" {
		log.Println("ADMIN_PASSWORD not set: legacy admin login disabled")
	}

	// Services & handlers
	menuSvc := menu.NewService(&menu.Repo{DB: db})
	orderSvc := &orders.Service{
		Store:     &orders.Repo{DB: db},
		Numbers:   orders.NewGenerator(),
		Redis:     rdb,
		Publisher: prod,
		Producer:  cfg.ServiceName,
	}
	invoices := &invoice.Service{
		Orders:   orderSvc,
		Redis:    rdb,
		Renderer: &invoice.Renderer{FontPath: cfg.InvoiceFontPath},
		Brand:    cfg.Brand,
		Location: loc,
	}
	aboutRepo := &about.Repo{DB: db}

	am := &httpx.AuthMiddleware{Resolver: resolver, Timeout: cfg.AuthResolveTimeout, SecureCookies: cfg.SecureCookies}
	router := httpx.NewRouter(cfg.CORSOrigins, am, httpx.Handlers{
		Menu:   &httpx.MenuHandler{Menu: menuSvc},
		About:  &httpx.AboutHandler{About: aboutRepo},
		Orders: &httpx.OrdersHandler{Orders: orderSvc},
		Auth:   &httpx.AuthHandler{Auth: resolver, Cookies: am},
		Admin:  &httpx.AdminHandler{Menu: menuSvc, Orders: orderSvc, Invoices: invoices},
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop accepting, flush queued events
	prod.WaitClosed() // drain
	cancel()
}
