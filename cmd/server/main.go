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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/erisanolasheni/risevest/internal/config"
	"github.com/erisanolasheni/risevest/internal/es"
	"github.com/erisanolasheni/risevest/internal/handlers"
	"github.com/erisanolasheni/risevest/internal/logging"
	authmw "github.com/erisanolasheni/risevest/internal/middleware/auth"
	loggingmw "github.com/erisanolasheni/risevest/internal/middleware/logging"
	"github.com/erisanolasheni/risevest/internal/mykafka"
	"github.com/erisanolasheni/risevest/internal/repository"
	"github.com/erisanolasheni/risevest/internal/session"
	"github.com/erisanolasheni/risevest/internal/token"
	httpserver "github.com/erisanolasheni/risevest/internal/transport/http"
)

const postIndex = "posts"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rdb, err := config.InitRedis(configuration)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	users := repository.NewUserRepository(db)
	issuer := token.NewIssuer([]byte(configuration.JWT_SECRET), configuration.ACCESS_TOKEN_TTL)
	refreshStore := session.NewRefreshStore(rdb, configuration.REFRESH_TOKEN_TTL)
	blacklist := session.NewBlacklist(rdb)
	sessions := session.NewService(users, issuer, refreshStore, blacklist)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Gate:           &authmw.Gate{Issuer: issuer, Blacklist: blacklist, Users: users},
		AuthHandler:    &handlers.AuthHandler{Sessions: sessions, Producer: prod},
		UserHandler:    &handlers.UserHandler{DB: db},
		PostHandler:    &handlers.PostHandler{DB: db, Producer: prod, ES: esClient, Index: postIndex},
		CommentHandler: &handlers.CommentHandler{DB: db, Producer: prod},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: postIndex},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := rdb.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
