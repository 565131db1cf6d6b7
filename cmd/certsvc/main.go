package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	config "github.com/gautampatil/credify-services/configs"
	"github.com/gautampatil/credify-services/internal/certsvc/broker"
	"github.com/gautampatil/credify-services/internal/certsvc/handlers"
	"github.com/gautampatil/credify-services/internal/certsvc/mailer"
	"github.com/gautampatil/credify-services/internal/certsvc/mirror"
	"github.com/gautampatil/credify-services/internal/certsvc/service"
	"github.com/gautampatil/credify-services/internal/certsvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "cert"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// mongodb connection
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	certStore, err := store.NewCertStore(ctx,
		os.Getenv("MONGODB_URI"),
		os.Getenv("MONGODB_NAME"),
		os.Getenv("MONGODB_COLLECTION"),
	)
	cancel()
	if err != nil {
		// keep serving; /status reports the broken connection
		log.Errorf("Error: unable to connect to DB %v", err)
	} else {
		log.Printf("mongodb connection established successfully")
	}

	// best-effort side channels, each optional at wiring time
	var listeners []service.IssueListener

	if dsn := os.Getenv("POSTGRES_URL"); dsn != "" {
		m, err := mirror.Connect(dsn)
		if err != nil {
			log.Errorf("Error: unable to connect to mirror database %v", err)
		} else {
			defer m.Close()
			if err := m.EnsureSchema(context.Background()); err != nil {
				log.Errorf("Error: unable to prepare mirror schema %v", err)
			} else {
				listeners = append(listeners, m)
				log.Printf("pg mirror connection established successfully")
			}
		}
	}

	if os.Getenv("NATS_URL") != "" {
		b, err := broker.Connect()
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
		} else {
			defer b.Conn.Close()
			listeners = append(listeners, b)
			log.Printf("NATS connection established successfully %s", b.Url)
		}
	}

	listeners = append(listeners, mailer.New(mailer.ConfigFromEnv()))

	certService := service.NewCertService(certStore, listeners...)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}

	// Init handlers and routes
	h := handlers.NewHandler(certService, uploadDir)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("CERT_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
