package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dixieflatline76/courtside/config"
	"github.com/dixieflatline76/courtside/util"
)

func runVersion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	check := fs.Bool("check", false, "look for a newer release on GitHub")
	if err := fs.Parse(args); err != nil {
		return err
	}

	version := config.AppVersion
	if version == "" {
		version = "dev"
	}
	fmt.Printf("%s %s\n", config.AppName, version)
	if !*check {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	res, err := util.CheckForUpdates(ctx, nil)
	if err != nil {
		return err
	}
	if res.UpdateAvailable {
		fmt.Printf("Update available: %s (%s)\n", res.LatestVersion, res.ReleaseURL)
	} else {
		fmt.Println("You are running the latest version.")
	}
	return nil
}
