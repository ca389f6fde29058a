package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/alertlog"
	"github.com/banshee-data/vision.safety/internal/api"
	"github.com/banshee-data/vision.safety/internal/config"
	"github.com/banshee-data/vision.safety/internal/engine"
	"github.com/banshee-data/vision.safety/internal/framemux"
	"github.com/banshee-data/vision.safety/internal/perception"
	"github.com/banshee-data/vision.safety/internal/timeutil"
	"github.com/banshee-data/vision.safety/internal/version"
)

var (
	listen             = flag.String("listen", ":8080", "Listen address")
	port               = flag.String("port", "/dev/ttyACM0", "Serial port of the perception unit (ignored with --replay)")
	baudRate           = flag.Int("baud", framemux.DefaultBaudRate, "Serial baud rate")
	replayPath         = flag.String("replay", "", "Replay perception frames from a JSON-lines fixture instead of the serial port")
	replayInterval     = flag.Duration("replay-interval", 100*time.Millisecond, "Delay between replayed frames")
	replayLoop         = flag.Bool("replay-loop", true, "Restart the replay at the end of the fixture")
	disablePerception  = flag.Bool("disable-perception", false, "Run without a perception unit (API and alert log only)")
	configPath         = flag.String("config", config.DefaultConfigPath, "Path to the engine configuration file")
	dbPath             = flag.String("db-path", "alerts.db", "Path to the alert log database")
	disableAlertLog    = flag.Bool("no-alertlog", false, "Do not record alerts to the database")
	schedulerBuffer    = flag.Int("timer-buffer", 64, "Fired timer callbacks buffered for the engine loop")
	alertQueue         = flag.Int("alert-queue", alertlog.DefaultQueueSize, "Alerts buffered for the alert log writer before new ones are dropped")
	frameBuffer        = flag.Int("frame-buffer", 8, "Decoded frames buffered for the engine loop")
	shutdownHTTPWithin = flag.Duration("shutdown-timeout", time.Second, "Grace period for in-flight HTTP requests on shutdown")
	showVersion        = flag.Bool("version", false, "Print the version and exit")
	envFile            = flag.String("env-file", "", "Read SAFETYD_* settings for flags not given on the command line")
)

// openTransport picks the frame transport from the flags.
func openTransport() (framemux.Interface, error) {
	switch {
	case *disablePerception:
		return framemux.NewDisabledMux(), nil
	case *replayPath != "":
		return framemux.NewReplayMux(*replayPath, framemux.ReplayOptions{
			Interval: *replayInterval,
			Loop:     *replayLoop,
		})
	default:
		return framemux.NewSerialMux(*port, framemux.PortOptions{BaudRate: *baudRate})
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("safetyd", version.String())
		return
	}
	if *envFile != "" {
		if err := applyEnvFile(flag.CommandLine, *envFile); err != nil {
			log.Fatal(err)
		}
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := config.LoadEngineConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Printf("safetyd %s", version.String())
	log.Printf("loaded config %s (market %s, %s)", *configPath, cfg.GetMarket(), cfg.GetSpeedUnit())

	transport, err := openTransport()
	if err != nil {
		log.Fatalf("failed to open perception transport: %v", err)
	}
	defer transport.Close()

	if err := transport.Initialise(); err != nil {
		log.Fatalf("failed to initialise perception unit: %v", err)
	}
	log.Printf("initialised perception transport %T", transport)

	var recorder engine.AlertRecorder
	var alerts api.AlertSource
	var alertDB *alertlog.DB
	if !*disableAlertLog {
		alertDB, err = alertlog.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open alert log: %v", err)
		}
		defer alertDB.Close()

		// the engine loop only enqueues; SQLite writes happen on the recorder's goroutine
		async := alertlog.NewAsyncRecorder(alertDB, *alertQueue)
		defer func() {
			async.Close()
			written, dropped, failed := async.Stats()
			log.Printf("alert log closed: %d written, %d dropped, %d failed", written, dropped, failed)
		}()
		recorder, alerts = async, alertDB
	}

	sched := timeutil.NewLoopScheduler(timeutil.RealClock{}, *schedulerBuffer)
	defer sched.Close()

	source := perception.NewLineSource(transport)
	display := api.NewDisplay(timeutil.RealClock{})
	e, err := engine.New(engine.Options{
		Config:    cfg,
		Scheduler: sched,
		Presenter: display,
		Player:    alert.LogPlayer{},
		Source:    source,
		Recorder:  recorder,
	})
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	loop := engine.NewLoop(e, sched.Ready())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		// leaving the screen stops looping sounds and drops pending timers
		runPipeline(ctx, transport, source, loop, *frameBuffer, e.BackToMenu)
		stop()
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(display, api.LoopController{Loop: loop}, alerts).ServeMux()
		transport.AttachAdminRoutes(mux)
		if alertDB != nil {
			alertDB.AttachAdminRoutes(mux)
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownHTTPWithin)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
