package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/tierfs/engine"
	"tractor.dev/tierfs/fusefs"
)

var twoWayFlag bool

// configureMountFlags registers the -two-way flag per SPEC_FULL §4.10.
func configureMountFlags(cmd *cli.Command) {
	cmd.Flags().BoolVar(&twoWayFlag, "two-way", false, "enable lower-to-upper promotion")
}

// resolveTwoWay returns true when the -two-way flag is set; otherwise it
// falls back to the TIERFS_TWO_WAY environment variable (parsed with
// strconv.ParseBool, unparsable values count as false). An explicit
// -two-way=false does not override the environment variable.
func resolveTwoWay() bool {
	if twoWayFlag {
		return true
	}
	if v, ok := os.LookupEnv("TIERFS_TWO_WAY"); ok {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return false
}

func runMount(ctx *cli.Context, args []string) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	upper, err := filepath.Abs(args[0])
	fatal(err)
	lower, err := filepath.Abs(args[1])
	fatal(err)
	mountpoint := args[2]
	adapterFlags := args[3:]

	twoWay := resolveTwoWay()

	eng := engine.New(upper, lower, twoWay, nil)

	runCtx, cancel := context.WithCancel(context.Background())
	eng.Start(runCtx)

	mount, err := fusefs.Mount(eng, mountpoint, adapterFlags)
	if err != nil {
		log.Fatalf("mount failed: %v\n", err)
	}

	log.Printf("mounted upper=%s lower=%s two_way=%v at %s\n", upper, lower, twoWay, mountpoint)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	if err := mount.Close(); err != nil {
		log.Printf("unmount: %v\n", err)
	}

	eng.Shutdown(context.Background())
	cancel()
}
