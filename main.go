package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"presence-hub/internal/config"
	"presence-hub/internal/db"
	"presence-hub/internal/handlers"
	"presence-hub/internal/hub"
	"presence-hub/internal/identity"
	"presence-hub/internal/middleware"
	"presence-hub/internal/observability"
	"presence-hub/internal/rabbitmq"
	"presence-hub/internal/repositories"
	"presence-hub/internal/telemetry"
	"presence-hub/internal/ws"
)

func main() {
	cfg := config.FromEnv()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg.OTLPEndpoint, "presence-hub", cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(publisher, "audit.presence_hub", "presence-hub", cfg.Environment)

	messageRepo := repositories.NewMessageRepo(database)

	presenceHub := hub.New(messageRepo, hub.Options{MaxBodyBytes: cfg.MaxMessageBytes})
	presenceHub.Start()

	resolver := identity.TrustedResolver{}

	roomHandler := handlers.NewRoomHandler(messageRepo, presenceHub, audit)
	wsHandler := ws.NewHandler(presenceHub, resolver, ws.Options{
		SendBuffer:      cfg.SendBufferSize,
		MaxMessageBytes: int64(cfg.MaxMessageBytes),
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		PingInterval:    cfg.PingInterval,
	})

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("presence-hub"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(resolver)

	router.GET("/rooms/:room_id/messages", authMiddleware, roomHandler.GetRoomMessages)
	router.POST("/rooms/:room_id/read", authMiddleware, roomHandler.MarkRoomRead)
	router.GET("/rooms/:room_id/presence", authMiddleware, roomHandler.GetRoomPresence)
	router.GET("/ws/rooms/:room_id", wsHandler.Handle)
	router.GET("/healthz", roomHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("presence hub listening on :%s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := presenceHub.Stop(ctx); err != nil {
		log.Printf("hub shutdown: %v", err)
	}
}
