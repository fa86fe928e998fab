package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Malon0825/beerhive-sales-system-sub005/internal/app/api"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/app/fulfillment"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/app/notify"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/config"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/db"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/httpx"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/logger"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/common/mq"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/domain"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/repository"
	"github.com/Malon0825/beerhive-sales-system-sub005/internal/service"
)

func main() {
	mode := flag.String("mode", "", "api | fulfillment-worker | notification-subscriber")
	workerName := flag.String("worker-name", "", "fulfillment-worker: unique worker name")
	destination := flag.String("destination", "kitchen", "fulfillment-worker: kitchen | bartender")
	prefetch := flag.Int("prefetch", 1, "fulfillment-worker: RabbitMQ prefetch")
	prepDelay := flag.Duration("prep-delay", 8*time.Second, "fulfillment-worker: simulated preparation time")
	flag.Parse()

	lg := logger.New("beerhive-" + *mode)
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		lg.Error("config_load_failed", err, nil)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "api":
		if err := runAPI(ctx, cfg, lg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "fulfillment-worker":
		if *workerName == "" {
			fmt.Fprintln(os.Stderr, "--worker-name is required for fulfillment-worker")
			os.Exit(2)
		}
		dest := domain.Destination(*destination)
		if dest != domain.DestKitchen && dest != domain.DestBartender {
			fmt.Fprintln(os.Stderr, "--destination must be kitchen or bartender")
			os.Exit(2)
		}
		if err := runWorker(ctx, cfg, lg, fulfillment.Config{
			WorkerName:   *workerName,
			Destination:  dest,
			Prefetch:     *prefetch,
			Heartbeat:    cfg.WorkerHeartbeat,
			StoreTimeout: cfg.StoreTimeout,
			PrepDelay:    *prepDelay,
		}); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runSubscriber(ctx, cfg, lg); err != nil {
			lg.Error("fatal", err, nil)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: api | fulfillment-worker | notification-subscriber")
		os.Exit(2)
	}
}

func connect(ctx context.Context, cfg config.App) (*db.Conn, *mq.Client, error) {
	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	client, err := mq.Dial(cfg.Rabbit.URL)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	if err := client.DeclareAll(); err != nil {
		client.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare topology: %w", err)
	}
	return conn, client, nil
}

func buildFulfillmentService(conn *db.Conn, client *mq.Client, lg *logger.Logger, cfg config.App) service.FulfillmentServiceInterface {
	return service.NewFulfillmentService(
		repository.NewOrderRepository(conn.Pool),
		repository.NewDraftRepository(conn.Pool),
		repository.NewProductRepository(conn.Pool),
		repository.NewFulfillmentRepository(conn.Pool),
		service.NewAMQPFulfillmentPublisher(client),
		service.NewAMQPNotifier(client, lg),
		lg,
		cfg.StoreTimeout,
	)
}

func runAPI(ctx context.Context, cfg config.App, lg *logger.Logger) error {
	conn, client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	sessionRepo := repository.NewSessionRepository(conn.Pool)
	draftRepo := repository.NewDraftRepository(conn.Pool)
	productRepo := repository.NewProductRepository(conn.Pool)
	tableRepo := repository.NewTableRepository(conn.Pool)

	notifier := service.NewAMQPNotifier(client, lg)
	coordinator := service.NewTableCoordinator(tableRepo, lg)

	sessions := service.NewSessionService(sessionRepo, coordinator, notifier, lg, cfg.StoreTimeout)
	drafts := service.NewOwnershipGuard(
		service.NewDraftService(draftRepo, productRepo, lg, cfg.StoreTimeout),
		draftRepo,
	)
	orders := buildFulfillmentService(conn, client, lg, cfg)

	h := api.NewHandler(sessions, drafts, orders, coordinator, lg)
	srv := httpx.New(fmt.Sprintf(":%d", cfg.HTTPPort), api.Router(h, conn, cfg.JWTSecret))

	lg.Info("service_started", map[string]any{"service": "api", "port": cfg.HTTPPort})
	return srv.Run(ctx)
}

func runWorker(ctx context.Context, cfg config.App, lg *logger.Logger, wcfg fulfillment.Config) error {
	conn, client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	worker := fulfillment.NewWorker(
		wcfg,
		client,
		buildFulfillmentService(conn, client, lg, cfg),
		repository.NewFulfillmentRepository(conn.Pool),
		service.NewAMQPFulfillmentPublisher(client),
		lg,
	)
	lg.Info("service_started", map[string]any{
		"service": "fulfillment-worker", "worker": wcfg.WorkerName, "destination": wcfg.Destination,
	})
	return worker.Run(ctx)
}

func runSubscriber(ctx context.Context, cfg config.App, lg *logger.Logger) error {
	client, err := mq.Dial(cfg.Rabbit.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer client.Close()
	if err := client.DeclareAll(); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}

	host, _ := os.Hostname()
	sub := notify.NewSubscriber(client, "notify-"+host, lg)
	lg.Info("service_started", map[string]any{"service": "notification-subscriber"})
	return sub.Run(ctx)
}
