package main

import (
	"log"
	"log/slog"

	"tractor.dev/toolkit-go/engine"
	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/tierfs/internal/slogger"
)

func main() {
	slogger.UseWithOptions(slogger.HandlerOptions{
		Level:   slog.LevelInfo,
		Exclude: []string{"freeze_poll_retry"},
	})
	engine.Run(Main{})
}

type Main struct{}

// InitializeCLI wires the top-level command per the spec's external
// interface: `program <upper> <lower> <mountpoint> [adapter flags...]`.
// There is no subcommand indirection; the root command itself mounts.
func (m *Main) InitializeCLI(root *cli.Command) {
	root.Usage = "tierfs <upper> <lower> <mountpoint> [adapter flags...]"
	root.Short = "tiered overlay filesystem"
	root.Args = cli.MinArgs(3)
	configureMountFlags(root)
	root.Run = runMount
}

func fatal(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
