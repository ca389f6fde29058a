// Command safetyctl inspects and drives a running safetyd over its HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/vision.safety/internal/api"
	"github.com/banshee-data/vision.safety/internal/engine"
	"github.com/banshee-data/vision.safety/internal/version"
)

const usage = `usage: safetyctl [flags] <command>

commands:
  state              print the current presentation snapshot
  select <screen>    switch to a screen (%s)
  back               return to the menu
  alerts [-n N]      print the most recent alerts

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("safetyctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", "http://localhost:8080", "Base URL of safetyd")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	showVersion := fs.Bool("version", false, "Print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, usage, screenList())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, "safetyctl", version.String())
		return 0
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	client := api.NewClient(*server, nil)

	var out any
	var err error
	switch cmd, rest := fs.Arg(0), fs.Args()[1:]; cmd {
	case "state":
		out, err = client.State(ctx)
	case "select":
		if len(rest) != 1 {
			fmt.Fprintln(stderr, "select needs exactly one screen")
			return 2
		}
		var screen engine.Screen
		if screen, err = engine.ParseScreen(rest[0]); err == nil {
			out, err = client.Select(ctx, screen)
		}
	case "back":
		out, err = client.Back(ctx)
	case "alerts":
		afs := flag.NewFlagSet("alerts", flag.ContinueOnError)
		afs.SetOutput(stderr)
		n := afs.Int("n", 20, "Number of alerts to show")
		if err := afs.Parse(rest); err != nil {
			return 2
		}
		out, err = client.Alerts(ctx, *n)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "safetyctl: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "safetyctl: %v\n", err)
		return 1
	}
	return 0
}

func screenList() string {
	names := make([]string, 0, len(engine.Screens))
	for _, s := range engine.Screens {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
