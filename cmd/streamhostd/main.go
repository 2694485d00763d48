// Command streamhostd runs a standalone SOCKS5 stream host: the same
// mini proxy the bytestream initiator announces locally, exposed as a
// long-running daemon for setups where a dedicated machine serves the
// transfers.
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	bytestreams "github.com/ge0rg/smack4"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen    = pflag.String("listen", "127.0.0.1:7777", "Stream host listen address")
		advertise = pflag.StringSlice("advertise", nil, "Additional addresses to advertise to peers")
		verbose   = pflag.Bool("verbose", false, "Enable per-connection error logging")
	)
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	opts := []bytestreams.Option{bytestreams.WithListenAddr(*listen)}
	if *verbose {
		opts = append(opts, bytestreams.WithLogger(
			bytestreams.NewLogger(log.New(os.Stderr, "streamhostd: ", log.LstdFlags))))
	}
	proxy := bytestreams.NewProxy(opts...)

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := proxy.Serve(ln); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		proxy.Stop()
		return nil
	})

	for _, addr := range *advertise {
		proxy.AddLocalAddress(addr)
	}
	log.Printf("stream host listening on %s, advertising %v", ln.Addr(), proxy.LocalAddresses())

	return g.Wait()
}
