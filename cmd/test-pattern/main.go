// Command test-pattern is a manual test for the square movement. It moves
// the local pointer through the pattern using the desktop transport,
// simulates one host drop halfway through, then exits.
//
// Usage:
//
//	go run ./cmd/test-pattern [--cycles 3] [--step 40] [--interval 200ms]
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/chaz8081/squaremouse/internal/controller"
	"github.com/chaz8081/squaremouse/internal/inject"
)

func main() {
	cycles := flag.Int("cycles", 3, "number of squares to trace")
	step := flag.Int("step", 40, "side length in pixels")
	interval := flag.Duration("interval", 200*time.Millisecond, "time between moves")
	flag.Parse()

	fmt.Printf("Will trace %d squares of %dpx in 3 seconds...\n", *cycles, *step)
	fmt.Println("Let go of the mouse now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	desktop := inject.NewDesktopMouse()
	ctrl, err := controller.New(desktop, controller.Options{
		StepSize: *step,
		Interval: *interval,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if err := ctrl.Start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	total := time.Duration(*cycles*4) * *interval
	ctx, cancel := context.WithTimeout(context.Background(), total+*interval/2)
	defer cancel()

	// Drop the simulated host halfway; the controller re-advertises and the
	// square restarts from its first side.
	go func() {
		time.Sleep(total / 2)
		fmt.Println("Simulating host disconnect...")
		desktop.Disconnect()
	}()

	if err := ctrl.Run(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		_ = ctrl.Close()
		return
	}

	fmt.Println("\nDone!")
}
