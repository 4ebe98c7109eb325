package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

const (
	appName = "thetool"
	appID   = "com.thetool.app"
)

var version = "dev"

// CLI holds global flags and subcommands.
type CLI struct {
	DataDir     string           `help:"Directory holding settings.yaml and the local state database" type:"path" env:"THETOOL_DATA_DIR"`
	NATSURL     string           `name:"nats-url" help:"NATS server for the synced store; empty disables sync" env:"THETOOL_NATS_URL"`
	NATSBucket  string           `name:"nats-bucket" help:"JetStream key-value bucket for synced state" default:"thetool" env:"THETOOL_NATS_BUCKET"`
	MetricsAddr string           `help:"Serve Prometheus metrics on this address, e.g. 127.0.0.1:9464" env:"THETOOL_METRICS_ADDR"`
	Verbose     bool             `short:"v" help:"Enable verbose logging" env:"THETOOL_VERBOSE"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run    RunCmd    `cmd:"" default:"1" help:"Run the tray app (default)"`
	Status StatusCmd `cmd:"" help:"Print the persisted timer and pomodoro state"`
	Notes  NotesCmd  `cmd:"" help:"Manage notes from the command line"`
}

// Global is shared with every command.
type Global struct {
	Logger *slog.Logger
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply(global *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	global.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(global.Logger)
	return nil
}

func main() {
	var cli CLI
	global := &Global{Logger: slog.Default()}
	kctx := kong.Parse(&cli,
		kong.Name(appName),
		kong.Description("Resumable countdown timer, pomodoro scheduler and notes."),
		kong.Vars{"version": version},
		kong.Bind(global),
		kong.UsageOnError(),
	)
	if err := kctx.Run(global, &cli); err != nil {
		global.Logger.Error("Command failed", slog.String("command", kctx.Command()), slog.Any("error", err))
		os.Exit(1)
	}
}
