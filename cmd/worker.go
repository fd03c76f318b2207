package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"eventhub-backend/internal/service"
	"eventhub-backend/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Runs the scheduled jobs, currently the event reminder emails, until SIGINT or SIGTERM.`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	rsvps := service.NewRSVPService(db, log, newNotifier())
	reminders := worker.NewReminderWorker(rsvps, log, cfg.Reminder)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reminders.Run(ctx) })

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Worker error")
		return err
	}
	log.Info("Worker shut down gracefully")
	return nil
}
