// Command squaremouse exposes a Bluetooth Low Energy HID mouse and moves the
// pointer of whichever host connects in a small repeating square.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/chaz8081/squaremouse/internal/ble"
	"github.com/chaz8081/squaremouse/internal/config"
	"github.com/chaz8081/squaremouse/internal/controller"
	"github.com/chaz8081/squaremouse/internal/hid"
	"github.com/chaz8081/squaremouse/internal/hotkey"
	"github.com/chaz8081/squaremouse/internal/inject"
)

// CLI is the command line. Flags override values from the config file.
type CLI struct {
	Config      string `help:"Path to config file (default: ~/.config/squaremouse/config.yaml)." type:"path"`
	Transport   string `help:"Override the transport: ble or desktop."`
	LogLevel    string `help:"Override the log level: debug, info, warn or error."`
	WriteConfig bool   `help:"Write the default config file and exit."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("squaremouse"),
		kong.Description("Bluetooth HID mouse that traces a square on the connected host."),
		kong.UsageOnError(),
	)

	if cli.WriteConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("write config: %v", err)
		}
		if path == "" {
			log.Printf("Config already exists at %s", config.DefaultConfigPath())
		} else {
			log.Printf("Wrote default config to %s", path)
		}
		return
	}

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cli.Transport != "" {
		cfg.Transport = cli.Transport
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	printBanner(cfg)

	ctrl, err := controller.New(newTransport(cfg), controller.Options{
		StepSize:    cfg.Movement.StepSize,
		Interval:    cfg.Movement.Interval,
		SettleDelay: cfg.Movement.SettleDelay,
	})
	if err != nil {
		log.Fatalf("controller: %v", err)
	}

	// Signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var listener *hotkey.Listener
	if len(cfg.Hotkey.StopKeys) > 0 {
		listener = startStopHotkey(cfg.Hotkey.StopKeys, ctrl)
	}

	code := run(ctx, ctrl)

	if listener != nil {
		listener.Stop()
	}
	stop()
	// Exit directly to avoid gohook's C cleanup crash.
	os.Exit(code)
}

// run drives the controller until shutdown and returns the exit status.
// A terminal advertising failure aborts with status 1.
func run(ctx context.Context, ctrl *controller.Controller) int {
	if err := ctrl.Start(); err != nil {
		log.Printf("ERROR: failed to start: %v", err)
		if cerr := ctrl.Close(); cerr != nil {
			log.Printf("ERROR: shutdown: %v", cerr)
		}
		return 1
	}

	log.Println("Ready! Waiting for a host to connect. Ctrl+C to quit.")
	err := ctrl.Run(ctx)
	if cerr := ctrl.Close(); cerr != nil {
		log.Printf("ERROR: shutdown: %v", cerr)
	}
	if err != nil {
		log.Printf("ERROR: %v", err)
		return 1
	}
	log.Println("Goodbye!")
	return 0
}

func newTransport(cfg *config.Config) hid.Transport {
	switch cfg.Transport {
	case config.TransportDesktop:
		return inject.NewDesktopMouse()
	default:
		return ble.NewHIDMouse(ble.NewTinyGoAdapter(), cfg.DeviceName)
	}
}

// startStopHotkey shuts the controller down whenever the combo is pressed.
func startStopHotkey(keys []string, ctrl *controller.Controller) *hotkey.Listener {
	listener := hotkey.NewListener(keys)
	go listener.Start()
	go func() {
		for range listener.Events() {
			log.Printf("Stop hotkey %s pressed, shutting down...", listener)
			ctrl.Shutdown()
		}
	}()
	return listener
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	hotkeys := "disabled"
	if len(cfg.Hotkey.StopKeys) > 0 {
		hotkeys = strings.Join(cfg.Hotkey.StopKeys, "+")
	}
	fmt.Println("=== squaremouse ===")
	fmt.Printf("  Device:    %s\n", cfg.DeviceName)
	fmt.Printf("  Transport: %s\n", cfg.Transport)
	fmt.Printf("  Square:    %d units every %s\n", cfg.Movement.StepSize, cfg.Movement.Interval)
	fmt.Printf("  Settle:    %s\n", cfg.Movement.SettleDelay)
	fmt.Printf("  Stop key:  %s\n", hotkeys)
	fmt.Printf("  Log:       %s\n", cfg.LogLevel)
	fmt.Println("===================")
}
