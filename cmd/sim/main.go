package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"campussim/internal/config"
	"campussim/internal/eventlog"
	"campussim/internal/observerproto"
	"campussim/internal/persistence/indexdb"
	persistlog "campussim/internal/persistence/log"
	"campussim/internal/sim/campus"
	"campussim/internal/sim/encoding"
	"campussim/internal/transport/observer"
)

func main() {
	var (
		configPath = flag.String("config", "configs/settings.yaml", "settings file path")
		addr       = flag.String("addr", ":8080", "http listen address (empty to run headless)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		ticks      = flag.Int("ticks", 0, "run this many ticks then exit (0 = run until signalled)")
		tickEvery  = flag.Duration("tick_every", time.Second, "real-time interval between ticks when serving")
		exportPlan = flag.String("export_plan", "", "write the finalized daily plans as CSV to this path and exit")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite event/alert index")
		logEvents  = flag.Bool("log_activities", false, "log every activity event to stdout")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load settings: %v", err)
	}

	sim, err := campus.New(cfg)
	if err != nil {
		logger.Fatalf("assemble simulation: %v", err)
	}

	if *exportPlan != "" {
		if err := sim.Schedules.ExportCSVFile(*exportPlan); err != nil {
			logger.Fatalf("export plan: %v", err)
		}
		logger.Printf("wrote plan export to %s", *exportPlan)
		return
	}

	for _, c := range sim.Schedules.DetectedConflicts() {
		logger.Printf("capacity conflict: room=%s window=[%d,%d) actors=%v", c.Room, c.StartTick, c.EndTick, c.Actors)
	}
	for _, c := range sim.Schedules.AppliedAdjustments() {
		logger.Printf("staggered: room=%s actors=%v shift=%dmin", c.Room, c.Actors, c.ShiftMinutes)
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	eventSink := persistlog.NewEventSink(*dataDir)
	defer eventSink.Close()
	sim.Events.AddSink(eventSink)

	if !*disableDB {
		idx, err := indexdb.Open(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		sim.Events.AddSink(idx)
		sim.Alerts.Subscribe(idx.RecordAlert)
	}

	if *logEvents {
		sim.Events.AddSink(stdoutSink{logger})
	}

	ctx, cancel := signalContext()
	defer cancel()

	if *addr == "" || *ticks > 0 {
		runHeadless(sim, *ticks, logger)
		return
	}

	obsSrv := observer.NewServer(bootstrapFor(sim, cfg), logger)
	principal := campus.NewPrincipalControls(sim)

	// The tick loop and the HTTP handlers share the simulation.
	var simMu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		simMu.Lock()
		snap := sim.Snapshot()
		simMu.Unlock()

		fmt.Fprintf(rw, "# HELP campussim_tick Current simulation tick.\n")
		fmt.Fprintf(rw, "# TYPE campussim_tick gauge\n")
		fmt.Fprintf(rw, "campussim_tick %d\n", snap.Tick)

		fmt.Fprintf(rw, "# HELP campussim_actors Actors in the simulation.\n")
		fmt.Fprintf(rw, "# TYPE campussim_actors gauge\n")
		fmt.Fprintf(rw, "campussim_actors %d\n", len(snap.Actors))

		fmt.Fprintf(rw, "# HELP campussim_active_alerts Unacknowledged alerts.\n")
		fmt.Fprintf(rw, "# TYPE campussim_active_alerts gauge\n")
		fmt.Fprintf(rw, "campussim_active_alerts %d\n", len(snap.Alerts))
	})
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		simMu.Lock()
		snap := sim.Snapshot()
		simMu.Unlock()
		writeJSON(rw, snap)
	})
	mux.HandleFunc("/v1/alerts", func(rw http.ResponseWriter, r *http.Request) {
		simMu.Lock()
		alerts := sim.Alerts.ActiveAlerts()
		simMu.Unlock()
		writeJSON(rw, alerts)
	})
	registerPrincipalHandlers(mux, principal, &simMu)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("ListenAndServe: %v", err)
		}
	}()

	ticker := time.NewTicker(*tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Printf("shutting down at %s", sim.Clock.TimeString())
			return
		case <-ticker.C:
			simMu.Lock()
			sim.Tick()
			snap := sim.Snapshot()
			simMu.Unlock()
			obsSrv.Publish(snap)
		}
	}
}

// stdoutSink mirrors activity events onto the process log for quick runs.
type stdoutSink struct{ log *log.Logger }

func (s stdoutSink) WriteEvent(e eventlog.Event) error {
	s.log.Printf("event %s actor=%s activity=%s room=%s", e.Kind, e.Actor, e.Activity, e.Room)
	return nil
}

func runHeadless(sim *campus.Simulation, ticks int, logger *log.Logger) {
	if ticks <= 0 {
		ticks = sim.Clock.DayLength
	}
	logger.Printf("running %d ticks from %s", ticks, sim.Clock.TimeString())
	sim.Advance(ticks)
	logger.Printf("finished at %s with %d events and %d active alerts",
		sim.Clock.TimeString(), len(sim.Events.Events()), len(sim.Alerts.ActiveAlerts()))
}

func bootstrapFor(sim *campus.Simulation, cfg config.Settings) observer.Bootstrap {
	b := observer.Bootstrap{
		MapParams: observerproto.MapParams{
			Width:            sim.Grid.Width,
			Height:           sim.Grid.Height,
			DayLengthMinutes: sim.Clock.DayLength,
			MinutesPerTick:   sim.Clock.MinutesPerTick,
			Seed:             cfg.RandomSeed,
			TilesRLE:         encoding.EncodeRLE(sim.Grid.TileIDs()),
		},
	}
	for _, name := range sim.Grid.RoomNames() {
		room, _ := sim.Grid.Room(name)
		if room == nil {
			continue
		}
		b.Rooms = append(b.Rooms, observerproto.RoomInfo{
			Name:     room.Name,
			Rect:     room.Rect,
			Type:     room.Type,
			Capacity: room.Capacity,
		})
	}
	return b
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
