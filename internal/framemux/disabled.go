package framemux

import (
	"context"
	"fmt"
	"net/http"

	"tailscale.com/tsweb"
)

// DisabledMux stands in for the perception link when the daemon runs
// without a unit. No lines ever arrive; subscribers stay open until Close so
// the frame decoder idles instead of ending the stream.
type DisabledMux struct {
	subs *subscriberSet
}

func NewDisabledMux() *DisabledMux {
	return &DisabledMux{subs: newSubscriberSet(0)}
}

func (d *DisabledMux) Subscribe() (string, chan string) { return d.subs.add() }

func (d *DisabledMux) Unsubscribe(id string) { d.subs.remove(id) }

// SendCommand accepts and discards performance hints.
func (d *DisabledMux) SendCommand(string) error { return nil }

func (d *DisabledMux) Monitor(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (d *DisabledMux) Close() error {
	d.subs.end()
	return nil
}

func (d *DisabledMux) Initialise() error { return nil }

// AttachAdminRoutes serves the same perception-stats page as a live link so
// dashboards can tell the unit is disabled rather than silent.
func (d *DisabledMux) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleFunc("perception-stats", "perception link line counters", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "perception: disabled\nlines: 0\nsubscribers: %d\n", d.subs.count())
	})
}
