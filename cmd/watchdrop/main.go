package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marianozunino/watchdrop/internal/app"
	"github.com/marianozunino/watchdrop/internal/chibisafe"
	"github.com/marianozunino/watchdrop/internal/cleanup"
	"github.com/marianozunino/watchdrop/internal/config"
	"github.com/marianozunino/watchdrop/internal/history"
	"github.com/marianozunino/watchdrop/internal/notify"
	"github.com/marianozunino/watchdrop/internal/uploader"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "watchdrop",
	Short: "Watch a directory and push new files to a chibisafe server",
	Long: `watchdrop watches a local directory for newly created files, uploads
each one to a chibisafe server and copies back the public URL. It can also
purge remote files older than a configured age.

Quick start:
  watchdrop watch                # run the watcher + cleanup schedule
  watchdrop upload photo.png     # one-shot manual upload
  watchdrop cleanup              # one-shot retention pass
  watchdrop history              # show recent uploads`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = config.DefaultConfigPath()
		}
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", configPath, err)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the watcher, cleanup schedule and control server",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.New(cfg, notify.LogSink{})
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}

		application.Start()
		defer application.Stop()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Printf("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:     "upload <file>",
	Aliases: []string{"u", "up"},
	Short:   "Upload a single file and print its public URL",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.IsValid() {
			return fmt.Errorf("configuration incomplete: set CHIBISAFE_API_KEY, CHIBISAFE_ALBUM_UUID and CHIBISAFE_WATCH_DIR in %s", configPath)
		}

		hist, err := history.NewStore(cfg.HistoryPath, cfg.HistoryLimit)
		if err != nil {
			log.Printf("Warning: upload history unavailable: %v", err)
			hist = nil
		} else {
			defer hist.Close()
		}

		var store uploader.HistoryStore
		if hist != nil {
			store = hist
		}

		dispatcher := uploader.NewDispatcher(chibisafe.NewClient(cfg), notify.LogSink{}, store)
		outcome := dispatcher.Dispatch(args[0])
		if !outcome.Succeeded() {
			return fmt.Errorf("upload failed: %s", outcome.Reason)
		}

		fmt.Println(outcome.URL)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete remote files older than the configured age",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.IsValid() {
			return fmt.Errorf("configuration incomplete: set CHIBISAFE_API_KEY, CHIBISAFE_ALBUM_UUID and CHIBISAFE_WATCH_DIR in %s", configPath)
		}

		worker := cleanup.NewWorker(cfg, chibisafe.NewClient(cfg))
		deleted, err := worker.PerformCleanup()
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d remote files older than %d days\n", deleted, cfg.CleanupAgeDays)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"h"},
	Short:   "Show recent uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := history.NewStore(cfg.HistoryPath, cfg.HistoryLimit)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer hist.Close()

		entries, err := hist.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No uploads recorded yet")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %-30s %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Filename, e.URL)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the upload history",
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := history.NewStore(cfg.HistoryPath, cfg.HistoryLimit)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer hist.Close()

		if err := hist.Clear(); err != nil {
			return err
		}
		fmt.Println("History cleared")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the env config file (default ~/.watchdrop/watchdrop.env)")

	historyCmd.AddCommand(historyClearCmd)

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
