// Command pypesrv serves the piping workbench over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/chazu/pypeline/pkg/api"
	"github.com/chazu/pypeline/pkg/config"
	"github.com/chazu/pypeline/pkg/store"
	"github.com/chazu/pypeline/pkg/workbench"
)

// Version is set during build.
var Version = "dev"

func main() {
	configPath := flag.String("config", "pypeline.yaml", "path to the YAML configuration")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	noStore := flag.Bool("no-store", false, "run without a document store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	wb, err := workbench.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize workbench: %v", err)
	}

	var st *store.Store
	if !*noStore {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to open store: %v", err)
		}
		defer st.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))
	e.Use(middleware.BodyLimit("2M"))

	api.RegisterRoutes(e, api.NewHandler(wb, st, Version))

	go func() {
		log.Printf("pypesrv %s listening on %s", Version, cfg.Server.Addr)
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
