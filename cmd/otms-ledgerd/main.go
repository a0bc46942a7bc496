// Command otms-ledgerd serves an in-memory ledger over gRPC. It is a local
// stand-in for a real chain gateway, used for development and integration
// testing of the anchoring and verification flows.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/kanima1/opentreasury/ledger/grpcledger"
	"github.com/kanima1/opentreasury/ledger/memledger"
)

func main() {
	fs := flag.NewFlagSet("otms-ledgerd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7788", "listen address")
	seedAccount := fs.String("seed-account", "", "account to pre-fund")
	seedBalance := fs.Uint64("seed-balance", 1_000_000_000, "pre-funded balance in lamports")

	_ = fs.Parse(os.Args[1:])

	led := memledger.New()
	if *seedAccount != "" {
		led.SetBalance(*seedAccount, *seedBalance)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcledger.RegisterLedgerServer(s, &grpcledger.Server{Query: led, Submission: led})

	fmt.Fprintf(os.Stderr, "otms-ledgerd listening on %s\n", lis.Addr().String())
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
