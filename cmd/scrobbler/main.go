//nolint:lll,forbidigo
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/oklog/run"
	"github.com/peterbourgon/ff"

	"github.com/hatarist/scrobbler"
	"github.com/hatarist/scrobbler/artistinfocache"
	"github.com/hatarist/scrobbler/db"
	"github.com/hatarist/scrobbler/dedupe"
	"github.com/hatarist/scrobbler/lastfm"
	"github.com/hatarist/scrobbler/server/ctrlbase"
	"github.com/hatarist/scrobbler/server/ctrlmaint"
	"github.com/hatarist/scrobbler/server/ctrlproto"
)

func main() {
	set := flag.NewFlagSet(scrobbler.Name, flag.ExitOnError)
	confListenAddr := set.String("listen-addr", "0.0.0.0:4748", "listen address (optional)")

	confTLSCert := set.String("tls-cert", "", "path to TLS certificate (optional)")
	confTLSKey := set.String("tls-key", "", "path to TLS private key (optional)")

	confDBPath := set.String("db-path", "scrobbler.db", "path to database (optional)")

	confProxyPrefix := set.String("proxy-prefix", "", "url path prefix to use if behind proxy. eg '/scrobbler' (optional)")
	confHTTPLog := set.Bool("http-log", true, "http request logging (optional)")

	confArtistInfoIntervalSecs := set.Int("artist-info-interval", 10, "interval (in seconds) between artist info lookups, 0 to disable (optional)")

	confShowVersion := set.Bool("version", false, "show scrobbler version")
	_ = set.String("config-path", "", "path to config (optional)")

	if err := ff.Parse(set, os.Args[1:],
		ff.WithConfigFileFlag("config-path"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix(scrobbler.NameUpper),
	); err != nil {
		log.Fatalf("error parsing args: %v\n", err)
	}

	if *confShowVersion {
		fmt.Printf("v%s\n", scrobbler.Version)
		os.Exit(0)
	}

	proxyPrefixExpr := regexp.MustCompile(`^\/*(.*?)\/*$`)
	*confProxyPrefix = proxyPrefixExpr.ReplaceAllString(*confProxyPrefix, `/$1`)

	dbc, err := db.New(*confDBPath)
	if err != nil {
		log.Fatalf("error opening database: %v\n", err)
	}
	defer dbc.Close()

	log.Printf("starting scrobbler v%s\n", scrobbler.Version)
	log.Printf("provided config\n")
	set.VisitAll(func(f *flag.Flag) {
		value := strings.ReplaceAll(f.Value.String(), "\n", "")
		log.Printf("    %-25s %s\n", f.Name, value)
	})

	lastfmClientKeyFunc := func() (string, error) {
		apiKey := dbc.GetSetting(db.LastFMAPIKey)
		if apiKey == "" {
			return "", fmt.Errorf("not configured")
		}
		return apiKey, nil
	}

	lastfmClient := lastfm.NewClient(lastfmClientKeyFunc)
	artistInfoCache := artistinfocache.New(dbc, lastfmClient)
	resolver := dedupe.New(dbc)

	ctrlBase := &ctrlbase.Controller{
		DB:          dbc,
		ProxyPrefix: *confProxyPrefix,
	}
	ctrlProto := &ctrlproto.Controller{
		Controller: ctrlBase,
	}
	ctrlMaint := &ctrlmaint.Controller{
		Controller: ctrlBase,
		Resolver:   resolver,
	}

	mux := mux.NewRouter()
	ctrlbase.AddRoutes(ctrlBase, mux, *confHTTPLog)
	ctrlmaint.AddRoutes(ctrlMaint, mux.PathPrefix("/maintenance").Subrouter())
	ctrlproto.AddRoutes(ctrlProto, mux)

	noCleanup := func(_ error) {}

	var g run.Group
	g.Add(run.SignalHandler(context.Background(), os.Interrupt, syscall.SIGTERM))
	g.Add(func() error {
		log.Print("starting job 'http'\n")
		server := &http.Server{
			Addr:              *confListenAddr,
			Handler:           mux,
			ReadTimeout:       5 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if *confTLSCert != "" && *confTLSKey != "" {
			return server.ListenAndServeTLS(*confTLSCert, *confTLSKey)
		}
		return server.ListenAndServe()
	}, noCleanup)

	if *confArtistInfoIntervalSecs > 0 {
		g.Add(func() error {
			log.Printf("starting job 'refresh artist info'\n")
			ticker := time.NewTicker(time.Duration(*confArtistInfoIntervalSecs) * time.Second)
			for range ticker.C {
				if _, err := lastfmClientKeyFunc(); err != nil {
					continue
				}
				if err := artistInfoCache.Refresh(); err != nil {
					log.Printf("error refreshing artist info: %v", err)
				}
			}
			return nil
		}, noCleanup)
	}

	if err := g.Run(); err != nil {
		var sig run.SignalError
		if errors.As(err, &sig) {
			log.Printf("received %s, shutting down", sig.Signal)
			return
		}
		log.Panicf("error in job: %v", err)
	}
}
