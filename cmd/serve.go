package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"eventhub-backend/internal/api"
	"eventhub-backend/internal/database"
	"eventhub-backend/internal/worker"
)

var (
	serveAddress string
	withWorker   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Connects to the database, applies migrations and serves the HTTP API.
It shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (overrides server.address)")
	serveCmd.Flags().BoolVar(&withWorker, "with-worker", false, "also run the reminder worker in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET is missing")
	}
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, closeDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := database.Migrate(db); err != nil {
		return err
	}

	statsCache := newCache()
	defer statsCache.Close()

	services := newServices(db, newNotifier(), newTokenManager(), statsCache)
	server := api.NewServer(cfg, log, services)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if withWorker {
		reminders := worker.NewReminderWorker(services.RSVPs, log, cfg.Reminder)
		g.Go(func() error { return reminders.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return err
	}
	log.Info("Server stopped")
	return nil
}
