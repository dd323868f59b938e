// Command uproxy is the forwarding HTTP/1.x proxy described in spec.md:
// `uproxy <port> <cache-ttl-seconds>`, with an optional `-c config.yaml`
// for the ambient overrides listed in SPEC_FULL.md §1a.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mason-ferrell/uproxy/internal/acceptor"
	"github.com/mason-ferrell/uproxy/internal/adminserver"
	"github.com/mason-ferrell/uproxy/internal/blocklist"
	"github.com/mason-ferrell/uproxy/internal/cache"
	uconfig "github.com/mason-ferrell/uproxy/internal/config"
	"github.com/mason-ferrell/uproxy/internal/log"
	"github.com/mason-ferrell/uproxy/internal/sweeper"
	"github.com/mason-ferrell/uproxy/internal/upstream"
	"github.com/mason-ferrell/uproxy/internal/worker"
)

var flagConf string

func init() {
	flag.StringVar(&flagConf, "c", "", "optional config file path (ambient overrides only)")
}

func main() {
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: uproxy [-c config.yaml] <port> <cache-ttl-seconds>")
		os.Exit(1)
	}

	port, err := strconv.Atoi(flag.Arg(0))
	if err != nil || port <= 0 {
		fmt.Fprintf(os.Stderr, "invalid port %q: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	ttlSeconds, err := strconv.Atoi(flag.Arg(1))
	if err != nil || ttlSeconds < 0 {
		fmt.Fprintf(os.Stderr, "invalid cache-ttl-seconds %q: %v\n", flag.Arg(1), err)
		os.Exit(1)
	}
	ttl := time.Duration(ttlSeconds) * time.Second

	bc := uconfig.Defaults()
	if flagConf != "" {
		c := uconfig.New[uconfig.Bootstrap](uconfig.WithSource(uconfig.NewFileSource(flagConf)))
		defer c.Close()
		if err := c.Scan(&bc); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := uconfig.MergeDefaults(&bc); err != nil {
		fmt.Fprintf(os.Stderr, "config: merge defaults: %v\n", err)
		os.Exit(1)
	}

	log.SetLogger(log.New(log.Options{
		Level:      log.ParseLevel(bc.Logger.Level),
		Path:       bc.Logger.Path,
		Caller:     bc.Logger.Caller,
		MaxSize:    bc.Logger.MaxSize,
		MaxAge:     bc.Logger.MaxAge,
		MaxBackups: bc.Logger.MaxBackups,
		Compress:   bc.Logger.Compress,
	}))

	store, err := cache.New(bc.CacheDir)
	if err != nil {
		log.Fatalf("create cache dir %s: %v", bc.CacheDir, err)
	}

	blocked, err := blocklist.Load(bc.BlockListPath)
	if err != nil {
		log.Fatalf("load blocklist %s: %v", bc.BlockListPath, err)
	}
	blocked.Watch()
	defer blocked.Close()

	acc, err := acceptor.Listen(fmt.Sprintf(":%d", port))
	if err != nil {
		log.Fatalf("listen on port %d: %v", port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		_ = acc.Close()
	}()

	sweepPeriod := ttl
	if bc.SweepInterval > 0 {
		sweepPeriod = time.Duration(bc.SweepInterval) * time.Second
	}

	sweepStop := make(chan struct{})
	go sweeper.Run(store, ttl, sweepPeriod, sweepStop)
	defer close(sweepStop)

	if bc.AdminAddr != "" {
		admin := adminserver.New(bc.AdminAddr, func() bool { return true })
		go func() {
			if err := admin.Start(); err != nil {
				log.Errorf("admin server: %v", err)
			}
		}()
		defer admin.Stop(context.Background())
	}

	connector := upstream.New(blocked)
	w := &worker.Worker{Store: store, Connector: connector, TTL: ttl}

	log.Infof("uproxy listening on %s (cache-ttl=%ds, cache-dir=%s)", acc.Addr(), ttlSeconds, bc.CacheDir)
	if err := acc.Serve(ctx, w.Handle); err != nil {
		log.Fatalf("accept loop: %v", err)
	}
}
