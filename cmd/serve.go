package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/encoding"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/notify"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve <dataset>",
	Short: "Start the attendance API server",
	Long: `Start the HTTP API server over the named dataset. The server exposes
dataset management, recognition session control, and attendance
queries.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Camera.URL == "" {
		return errors.New("CAMERA_URL environment variable is required")
	}

	datasets, records, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	ds, err := datasets.Load(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load dataset %q: %w", args[0], err)
	}

	roster := make([]string, 0, len(ds.Gallery))
	for _, entry := range ds.Gallery {
		roster = append(roster, entry.Label)
	}

	ledger, err := attendance.NewLedger(cmd.Context(), records, roster, cfg.Recognition.DedupWindow)
	if err != nil {
		return err
	}

	notifier := notify.New(cfg.MQTT)
	defer notifier.Close()

	detector := extractor.NewClient(cfg.Extractor.URL)
	loop := recognition.NewLoop()

	deps := handlers.Deps{
		Config:   cfg,
		Datasets: datasets,
		Builder:  encoding.NewBuilder(detector),
		Ledger:   ledger,
		Loop:     loop,
		Detector: detector,
		Gallery:  ds.Gallery,
		NewSource: func() camera.Source {
			return camera.NewHTTPCamera(cfg.Camera.URL, cfg.Camera.Timeout)
		},
		Notifier: notifier,
	}

	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	server := web.NewServer(cfg, deps, host, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		if err := loop.Stop(); err != nil && !errors.Is(err, recognition.ErrNotRunning) {
			fmt.Printf("Error stopping recognition: %v\n", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Serving dataset %q (%d students) on http://%s:%d\n", ds.Info.Name, len(roster), host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
