package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stevohstine/rolebase-access/auth"
	"github.com/stevohstine/rolebase-access/internal/config"
	"github.com/stevohstine/rolebase-access/migrations"
	"github.com/stevohstine/rolebase-access/server"
	"github.com/stevohstine/rolebase-access/token"
	refreshpg "github.com/stevohstine/rolebase-access/token/refresh/postgres"
	identitypg "github.com/stevohstine/rolebase-access/users/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	secret := c.GetJWTSecret()
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	db, err := sql.Open("pgx", c.GetDatabaseDSN())
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer db.Close()

	if err := runMigrations(context.Background(), db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	identityRepo := identitypg.NewRepository(db)
	refreshRepo := refreshpg.NewRepository(db)

	signer := token.NewHMACSigner(secret)
	issuer := token.NewIssuer(
		token.NewAssembler(identityRepo),
		signer,
		refreshRepo,
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
		token.WithRefreshTokenLength(c.GetRefreshTokenLength()),
	)
	rotator := token.NewRotator(signer, refreshRepo, identityRepo, issuer, logger)

	authService, err := auth.NewService(identityRepo, issuer, logger)
	if err != nil {
		return fmt.Errorf("auth service error: %w", err)
	}

	httpServer := &http.Server{
		Addr:    c.GetPort(),
		Handler: server.New(c, authService, rotator, signer, logger),
	}

	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.UpContext(ctx, db, ".")
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
