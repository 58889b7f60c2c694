package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dixieflatline76/courtside/config"
	"github.com/dixieflatline76/courtside/pkg/api"
	"github.com/dixieflatline76/courtside/pkg/crop"
	"github.com/dixieflatline76/courtside/pkg/geo"
	"github.com/dixieflatline76/courtside/pkg/profile"
	"github.com/dixieflatline76/courtside/util"
	"github.com/dixieflatline76/courtside/util/log"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.APIAddr, "address the API listens on")
	dataDir := fs.String("data-dir", cfg.ResolveDataDir(), "directory for profile data")
	geocoder := fs.String("geocoder", cfg.GeocoderURL, "Nominatim compatible endpoint, empty to disable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	ok, err := acquireLock(*dataDir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("another %s instance is already serving %s", config.AppName, *dataDir)
	}
	defer releaseLock()

	// Initialize Encryption Key and Storage
	st, err := profile.OpenStorage(*dataDir, os.Getenv("COURTSIDE_MASTER_KEY"))
	if err != nil {
		return err
	}
	store := profile.NewStore(st)
	store.SetDebounceDuration(cfg.SaveDebounce)
	store.SetAsyncSave(cfg.SaveDebounce > 0)
	store.Load()
	defer store.Flush()

	opts := api.Options{
		Addr:           *addr,
		Store:          store,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if *geocoder != "" {
		opts.Geocoder = geo.NewClient(*geocoder, nil, cfg.GeocoderRPS, cfg.GeocoderCacheSize)
	}
	model, err := crop.LoadFaceModel(cfg.FaceModelPath)
	if err != nil {
		log.Printf("Face detection disabled: %v", err)
	}
	if opts.Suggester, err = crop.NewSuggester(crop.DefaultTuning(), model); err != nil {
		log.Printf("Face detection disabled: %v", err)
		opts.Suggester, _ = crop.NewSuggester(crop.DefaultTuning(), nil)
	}

	if cfg.UpdateCheck && config.AppVersion != "" {
		go func() {
			res, err := util.CheckForUpdates(ctx, nil)
			if err != nil {
				log.Debugf("Update check failed: %v", err)
				return
			}
			if res.UpdateAvailable {
				log.Printf("%s %s is available: %s", config.AppName, res.LatestVersion, res.ReleaseURL)
			}
		}()
	}

	server := api.NewServer(opts)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	} else {
		log.Println("Gracefully stopped.")
	}
	return nil
}
