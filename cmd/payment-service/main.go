package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	checkoutapp "github.com/fooddash/payment-service/internal/checkout/application"
	checkouthttp "github.com/fooddash/payment-service/internal/checkout/infrastructure/http"
	payoutapp "github.com/fooddash/payment-service/internal/payout/application"
	payouthttp "github.com/fooddash/payment-service/internal/payout/infrastructure/http"
	settlementapp "github.com/fooddash/payment-service/internal/settlement/application"
	"github.com/fooddash/payment-service/internal/settlement/infrastructure/fcm"
	settlementhttp "github.com/fooddash/payment-service/internal/settlement/infrastructure/http"
	settlementkafka "github.com/fooddash/payment-service/internal/settlement/infrastructure/kafka"
	settlementmongo "github.com/fooddash/payment-service/internal/settlement/infrastructure/mongo"
	"github.com/fooddash/payment-service/internal/stripeclient"
	"github.com/fooddash/payment-service/pkg/idempotency"
	"github.com/fooddash/payment-service/pkg/logging"
	"github.com/fooddash/payment-service/pkg/outbox"
	"github.com/fooddash/payment-service/pkg/shutdown"
	"github.com/fooddash/payment-service/pkg/tracing"
)

func main() {
	log := logging.New("payment-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Configuration
	httpAddr := env("HTTP_ADDR", ":8080")
	mongoURL := env("MONGO_URL", "mongodb://localhost:27017")
	mongoDB := env("MONGO_DB", "fooddash")
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	kafkaAddr := env("KAFKA_ADDR", "localhost:9092")
	statusTopic := env("STATUS_TOPIC", "order.status")
	otlpEndpoint := env("OTLP_ENDPOINT", "localhost:4318")
	baseURL := env("BASE_URL", "http://localhost:8080")
	stripeSecret := os.Getenv("STRIPE_SECRET")
	signingSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	firebaseCreds := os.Getenv("FIREBASE_CREDENTIALS")
	if stripeSecret == "" || signingSecret == "" {
		log.Error("STRIPE_SECRET and STRIPE_WEBHOOK_SECRET are required")
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "payment-service", otlpEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Mongo setup
	mc, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(mongoURL))
	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	db := mc.Database(mongoDB)

	// Redis-backed webhook dedup
	redisDB := redis.NewClient(&redis.Options{Addr: redisAddr})
	dedup := idempotency.NewStore(redisDB, 24*time.Hour)

	// Stripe
	sc := stripeclient.New(stripeclient.Config{
		SecretKey:     stripeSecret,
		SigningSecret: signingSecret,
		SuccessURL:    baseURL + "/checkout-success",
		CancelURL:     baseURL + "/cancel",
	})

	// FCM
	notifier, err := fcm.NewNotifier(ctx, firebaseCreds)
	if err != nil {
		log.Error("fcm init failed", "err", err)
		os.Exit(1)
	}

	// Settlement wiring: mongo store, outbox relay into kafka
	repo := settlementmongo.NewRepository(log, db)
	store := settlementmongo.NewOutboxStore(log, db)
	writer := settlementkafka.NewWriter([]string{kafkaAddr})
	defer writer.Close()
	dispatch := outbox.NewDispatcher(log, writer, statusTopic)
	relay := outbox.NewRelay(log, store, dispatch, "settlement-relay-"+uuid.NewString())

	settleSvc := settlementapp.NewService(log, repo, sc, notifier)
	webhook := settlementhttp.NewWebhookHandler(log, sc, dedup, settleSvc)

	checkoutSvc := checkoutapp.NewService(sc)
	checkout := checkouthttp.NewHandler(log, checkoutSvc)

	payoutSvc := payoutapp.NewService(sc, sc)
	payout := payouthttp.NewHandler(log, payoutSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	checkout.Register(r)
	payout.Register(r)
	webhook.Register(r)

	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		log.Info("http listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("payment-service stopped", "err", err)
		os.Exit(1)
	}
	log.Info("payment-service shutdown complete")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
