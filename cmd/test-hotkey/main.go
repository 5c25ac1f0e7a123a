// Command test-hotkey is a manual test for the global stop hotkey.
// Run it, then press the combo to see events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--keys ctrl+shift+q]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaz8081/squaremouse/internal/hotkey"
)

func main() {
	keys := flag.String("keys", "ctrl+shift+q", "key combo, joined with +")
	flag.Parse()

	listener := hotkey.NewListener(strings.Split(*keys, "+"))
	fmt.Printf("Listening for %s...\n", listener)
	fmt.Println("Press Ctrl+C to exit.")

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Read events
	go func() {
		n := 0
		for range listener.Events() {
			n++
			fmt.Printf(">>> STOP pressed (%d)\n", n)
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}
