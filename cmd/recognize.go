package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/notify"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <dataset>",
	Short: "Run live recognition against a dataset",
	Long: `Start a recognition session: capture frames from the configured
camera, match detected faces against the named dataset, and mark
matched students present in today's attendance record. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Float64("threshold", 0, "Match threshold override (0 = use config)")
	recognizeCmd.Flags().Duration("interval", 0, "Frame capture interval override (0 = use config)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Camera.URL == "" {
		return fmt.Errorf("CAMERA_URL environment variable is required")
	}

	datasets, records, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	ds, err := datasets.Load(cmd.Context(), args[0])
	if err != nil {
		return err
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

	threshold := cfg.Recognition.Threshold
	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		threshold = t
	}

	interval := cfg.Recognition.FrameInterval
	if d := mustGetDuration(cmd, "interval"); d > 0 {
		interval = d
	}

	loop := recognition.NewLoop()
	events, err := loop.Start(context.Background(), recognition.Session{
		Gallery:   ds.Gallery,
		Threshold: threshold,
		Source:    camera.NewHTTPCamera(cfg.Camera.URL, cfg.Camera.Timeout),
		Detector:  extractor.NewClient(cfg.Extractor.URL),
		Interval:  interval,
		Downscale: cfg.Recognition.Downscale,
	})
	if err != nil {
		return fmt.Errorf("failed to start recognition: %w", err)
	}

	fmt.Printf("Recognition running against dataset %q (%d students, threshold %.2f)\n",
		ds.Info.Name, len(roster), threshold)
	fmt.Println("Press Ctrl+C to stop")

	go func() {
		for range events.Frames {
			// No preview consumer in CLI mode.
		}
	}()

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for s := range events.Sightings {
			recorded, err := ledger.RecordSighting(context.Background(), s.Label, s.At)
			if err != nil {
				log.Printf("recording sighting of %s: %v", s.Label, err)
				continue
			}
			if !recorded {
				continue
			}

			fmt.Printf("[%s] %s present (distance %.3f)\n",
				s.At.Format(time.TimeOnly), s.Label, s.Distance)

			if err := notifier.PublishSighting(context.Background(), s); err != nil {
				log.Printf("publishing sighting: %v", err)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nStopping recognition...")
	if err := loop.Stop(); err != nil {
		return fmt.Errorf("failed to stop recognition: %w", err)
	}
	<-consumed

	present := ledger.Present()
	fmt.Printf("Session ended: %d of %d students marked present today.\n", len(present), len(roster))
	return nil
}
