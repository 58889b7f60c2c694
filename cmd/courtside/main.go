package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dixieflatline76/courtside/config"
	"github.com/dixieflatline76/courtside/util/log"
)

const usage = `Usage: courtside <command> [flags]

Commands:
  crop      crop images into avatar or cover rasters
  timeline  render a track file as an SVG timeline map
  serve     run the local dashboard API
  version   print the version, -check looks for a newer release

Run "courtside <command> -h" for the flags of a command.
`

var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.GetConfig()

	var err error
	switch os.Args[1] {
	case "crop":
		err = runCrop(ctx, cfg, os.Args[2:])
	case "timeline":
		err = runTimeline(os.Args[2:])
	case "serve":
		err = runServe(ctx, cfg, os.Args[2:])
	case "version":
		err = runVersion(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		log.Printf("%s: %v", os.Args[1], err)
		os.Exit(1)
	}
}
