// Command scrobblerdiff scans the scrobble history for near duplicate artist
// and track names and records candidate pairs for later review. safe to run
// while the server is up, and safe to re-run: already scored pairs are kept
// as they are.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/peterbourgon/ff"

	"github.com/hatarist/scrobbler"
	"github.com/hatarist/scrobbler/db"
	"github.com/hatarist/scrobbler/dedupe"
	"github.com/hatarist/scrobbler/strdist"
)

func main() {
	set := flag.NewFlagSet(scrobbler.Name+"diff", flag.ExitOnError)
	confDBPath := set.String("db-path", "scrobbler.db", "path to database (optional)")
	confVariant := set.String("variant", "D1", "distance variant to score, one of D1 D1L D2 D2L D3 D3L D4 D4L")
	confChunks := set.Int("chunks", 1, "total number of partitions the name list is split into (optional)")
	confIndex := set.Int("index", 0, "zero based partition index for this invocation (optional)")
	confWorkers := set.Int("workers", 0, "run all partitions concurrently with this many workers, overrides chunks/index (optional)")
	confTracks := set.Bool("tracks", false, "scan track names instead of artist names")
	confTopArtists := set.Int("top-artists", 0, "how many top artists a track scan visits (optional)")
	confShowVersion := set.Bool("version", false, "show scrobbler version")

	if err := ff.Parse(set, os.Args[1:],
		ff.WithEnvVarPrefix(scrobbler.NameUpper),
	); err != nil {
		log.Fatalf("error parsing args: %v\n", err)
	}

	if *confShowVersion {
		fmt.Printf("v%s\n", scrobbler.Version)
		os.Exit(0)
	}

	variant, err := strdist.ParseVariant(*confVariant)
	if err != nil {
		log.Fatalf("error parsing variant: %v\n", err)
	}

	dbc, err := db.New(*confDBPath)
	if err != nil {
		log.Fatalf("error opening database: %v\n", err)
	}
	defer dbc.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	resolver := dedupe.New(dbc)
	run := dedupe.Run{
		Variant:    variant,
		Chunks:     *confChunks,
		Index:      *confIndex,
		TopArtists: *confTopArtists,
	}

	switch {
	case *confWorkers > 0:
		err = resolver.RunPartitioned(ctx, run, *confWorkers, *confTracks)
	case *confTracks:
		err = resolver.FindSimilarTracks(ctx, run)
	default:
		err = resolver.FindSimilarArtists(ctx, run)
	}
	if err != nil {
		log.Fatalf("error scanning for similar names: %v\n", err)
	}
}
