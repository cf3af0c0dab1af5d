package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ariefcatur/go-restaurant-orders/internal/config"
	"github.com/ariefcatur/go-restaurant-orders/internal/invoice"
	kafkax "github.com/ariefcatur/go-restaurant-orders/internal/kafka"
	"github.com/ariefcatur/go-restaurant-orders/internal/orders"
	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	loc, err := time.LoadLocation(cfg.InvoiceTimezone)
	if err != nil {
		log.Printf("invoice timezone %q: %v, using UTC", cfg.InvoiceTimezone, err)
		loc = time.UTC
	}

	// Orders are read only here; nothing is published.
	orderSvc := &orders.Service{Store: &orders.Repo{DB: db}}
	worker := &invoice.Worker{
		Invoices: &invoice.Service{
			Orders:   orderSvc,
			Redis:    rdb,
			Renderer: &invoice.Renderer{FontPath: cfg.InvoiceFontPath},
			Brand:    cfg.Brand,
			Location: loc,
		},
		Redis: rdb,
		Name:  cfg.InvoicerGroup,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InvoicerGroup, orders.TopicPaymentChanged, cfg.InvoicerWorkers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("invoicer consumer started: group=%s topic=%s workers=%d",
			cfg.InvoicerGroup, orders.TopicPaymentChanged, cfg.InvoicerWorkers)
		return cons.Start(gctx, worker.HandlePaymentChanged)
	})
	g.Go(func() error {
		// periodic health check
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				if err := rdb.Ping(gctx).Err(); err != nil && gctx.Err() == nil {
					log.Printf("redis ping: %v", err)
				}
			}
		}
	})
	if err := g.Wait(); err != nil {
		log.Printf("consumer exit: %v", err)
	}
	log.Println("invoicer stopped")
}
