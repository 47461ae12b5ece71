// Command wireplumberd is the daemon wrapper that embeds the
// dispatcher core: it parses the §6 CLI surface and runs until SIGINT,
// SIGTERM or SIGHUP asks it to stop. It does not connect a
// mediatransport.Transport, so a media-server disconnect does not stop
// it (see activate).
// -trace-file and -reservation-broker additionally wire the optional
// tracestore recorder and the device reservation bus into the
// dispatcher at startup.
//
// Configuration-file parsing is out of scope (§1); -c/--config-file is
// accepted and threaded through only as a filename the embedding
// environment is expected to hand to its own config loader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wireplumber/dispatcher"
	"wireplumber/internal/werror"
	"wireplumber/internal/wplog"
	"wireplumber/pluginregistry"
	"wireplumber/reservation"
	"wireplumber/reservebus"
	"wireplumber/tracestore"
)

var log = wplog.Topic("main")

// Exit codes, based on sysexits.h (spec §6).
const (
	exitOK                = 0
	exitUsage             = 64
	exitServiceUnavailable = 69
	exitSoftware          = 70
	exitConfig            = 78
)

// version is set at build time via -ldflags, following the teacher's
// own lack of embedded build metadata (none of its commands report a
// version either); this is the one new piece of ambient plumbing the
// wrapper's -v flag needs.
var version = "dev"

func main() {
	os.Exit(run())
}

// exitCode implements the "replace OK with an error, but never replace
// an error with OK" latch from original_source/src/main.c's daemon_exit:
// once set non-zero, later calls must not clobber it back to 0.
type exitCode struct {
	code int
}

func (e *exitCode) set(code int) {
	if e.code == exitOK {
		e.code = code
	}
}

func run() int {
	var (
		showVersion       = flag.Bool("v", false, "print version and exit")
		configFile        = flag.String("c", "wireplumber.conf", "configuration filename")
		profile           = flag.String("p", "main", "profile name")
		reservationBroker = flag.String("reservation-broker", "", "MQTT broker address for the device reservation bus (disabled if empty)")
		traceFile         = flag.String("trace-file", "", "bolt database recording each dispatched event's hook trace, for inspection with wpdb (disabled if empty)")
	)
	flag.BoolVar(showVersion, "version", *showVersion, "print version and exit")
	flag.StringVar(configFile, "config-file", *configFile, "configuration filename")
	flag.StringVar(profile, "profile", *profile, "profile name")
	flag.Parse()

	if *showVersion {
		fmt.Println("wireplumberd " + version)
		return exitOK
	}

	log.Notice("starting with config-file=%s profile=%s", *configFile, *profile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigs
		log.Notice("received %s, shutting down", sig)
		cancel()
	}()

	ec := &exitCode{}

	d := dispatcher.New()
	defer d.Close()

	if *traceFile != "" {
		store, err := tracestore.Open(*traceFile)
		if err != nil {
			log.Critical("opening trace file %s: %s", *traceFile, err)
			return exitSoftware
		}
		defer store.Close()
		d.SetTraceStore(store)
	}

	if err := activate(ctx, d, *reservationBroker); err != nil {
		ec.set(mapActivationError(err))
		log.Critical("activation failed: %s", err)
		return ec.code
	}

	<-ctx.Done()
	return ec.code
}

// activate is the hook-up point for a mediatransport.Transport and the
// reservation manager. The daemon wrapper carries no media server
// configuration of its own, per §1's scope boundary, so wiring a
// Transport remains a seam a packaging layer fills in rather than a
// concrete connection attempt here. The reservation bus is a narrower,
// optional concern (SPEC_FULL §C.4): if a broker address was given,
// activate connects to it, builds the Manager, publishes it through
// pluginregistry so hooks can look it up by name instead of holding a
// direct reference, and registers the async reservation hook that
// drives it from select-target events.
func activate(ctx context.Context, d *dispatcher.Dispatcher, reservationBroker string) error {
	if reservationBroker == "" {
		return nil
	}

	bus, err := reservebus.NewMQTTBus(reservebus.MQTTOptions{
		Broker:   reservationBroker,
		ClientID: "wireplumberd",
	})
	if err != nil {
		return &werror.ServiceUnavailableError{Service: "reservation bus"}
	}

	mgr := reservation.NewManager(bus)
	pluginregistry.Register("reservation", mgr)
	d.Register(reservation.NewAsyncHook("device-reservation", mgr, "wireplumberd", reservationHookPriority))

	go func() {
		<-ctx.Done()
		d.Unregister("device-reservation")
		pluginregistry.Unregister("reservation")
		bus.Close()
	}()

	return nil
}

// reservationHookPriority is the application priority the reservation
// hook claims devices at on the daemon's own behalf, distinct from any
// particular client's ApplicationDeviceName priority (SPEC_FULL §C.4).
const reservationHookPriority int32 = 10

// mapActivationError implements original_source/src/main.c's
// on_core_activated exit-code mapping (SPEC_FULL §C.1): a
// ServiceUnavailableError maps to 69, an InvalidArgumentError to 78,
// anything else to 70.
func mapActivationError(err error) int {
	var svc *werror.ServiceUnavailableError
	if errors.As(err, &svc) {
		return exitServiceUnavailable
	}
	var inv *werror.InvalidArgumentError
	if errors.As(err, &inv) {
		return exitConfig
	}
	return exitSoftware
}
