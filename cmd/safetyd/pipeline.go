package main

import (
	"context"
	"log"
	"sync"

	"github.com/banshee-data/vision.safety/internal/engine"
	"github.com/banshee-data/vision.safety/internal/framemux"
	"github.com/banshee-data/vision.safety/internal/perception"
)

// runPipeline moves lines from the transport through the decoder into the
// engine loop and returns once all three stages have stopped. The stages
// stop on ctx cancellation or when the transport's stream ends. onStop runs
// after the loop exits, while nothing else touches the engine.
func runPipeline(ctx context.Context, transport framemux.Interface, source *perception.LineSource, loop *engine.Loop, frameBuffer int, onStop func()) {
	// subscribe before monitoring starts so the first lines reach the decoder
	source.Subscribe()

	var wg sync.WaitGroup

	// read lines from the perception unit and fan them out to subscribers
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := transport.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor perception transport: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	frames := make(chan perception.Frame, frameBuffer)

	// decode frames for the engine loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(frames)
		if err := source.Run(ctx, frames); err != nil && err != context.Canceled {
			log.Printf("perception source stopped: %v", err)
		}
		log.Printf("source routine terminated (%d decode errors)", source.DecodeErrors())
	}()

	// the engine loop owns the engine; everything else talks to it through Do
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx, frames); err != nil && err != context.Canceled {
			log.Printf("engine loop stopped: %v", err)
		}
		if onStop != nil {
			onStop()
		}
		log.Print("engine routine terminated")
	}()

	wg.Wait()
}
