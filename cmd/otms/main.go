// Command otms is the OpenTreasury CLI: annotate treasury transactions,
// export OTMS documents, anchor their digests on-chain, and verify anchors.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/kanima1/opentreasury/anchor"
	"github.com/kanima1/opentreasury/annotstore/localfs"
	"github.com/kanima1/opentreasury/config"
	"github.com/kanima1/opentreasury/keys"
	"github.com/kanima1/opentreasury/ledger/grpcledger"
	"github.com/kanima1/opentreasury/logging"
	"github.com/kanima1/opentreasury/otms"
	"github.com/kanima1/opentreasury/treasury"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "annotate":
		return cmdAnnotate(args[1:], out, errOut)
	case "export":
		return cmdExport(args[1:], out, errOut)
	case "import":
		return cmdImport(args[1:], out, errOut)
	case "digest":
		return cmdDigest(args[1:], out, errOut)
	case "anchor":
		return cmdAnchor(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "decode-memo":
		return cmdDecodeMemo(args[1:], out, errOut)
	case "balance":
		return cmdBalance(args[1:], out, errOut)
	case "history":
		return cmdHistory(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "otms: OpenTreasury annotation, anchoring, and verification CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  otms annotate --sig <signature> --label <Donation|Grant|Ops|Milestone|Other> [--custom <name>] [--note <text>] [--proof-url <url>]")
	fmt.Fprintln(w, "  otms annotate --sig <signature> --clear")
	fmt.Fprintln(w, "  otms export [--out <file>]")
	fmt.Fprintln(w, "  otms import <file>")
	fmt.Fprintln(w, "  otms digest")
	fmt.Fprintln(w, "  otms anchor")
	fmt.Fprintln(w, "  otms verify --tx <txid> --doc <file>")
	fmt.Fprintln(w, "  otms decode-memo <file>")
	fmt.Fprintln(w, "  otms balance")
	fmt.Fprintln(w, "  otms history [--limit <n>]")
	fmt.Fprintln(w, "  otms key init [--force]")
	fmt.Fprintln(w, "  otms key show")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common flags: --config <file> --treasury <account> --cluster <id> --ledger <addr> --read-only")
}

// commonFlags registers the flags shared by every subcommand and returns a
// loader that applies flag overlays on top of the config file.
func commonFlags(fs *flag.FlagSet) func() (*config.Config, error) {
	cfgPath := fs.String("config", defaultConfigPath(), "config file")
	treasuryFlag := fs.String("treasury", "", "tracked treasury account")
	cluster := fs.String("cluster", "", "ledger cluster identifier")
	ledgerAddr := fs.String("ledger", "", "ledger gateway address")
	readOnly := fs.Bool("read-only", false, "refuse mutating operations")

	return func() (*config.Config, error) {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return nil, err
		}
		if *treasuryFlag != "" {
			cfg.Treasury = *treasuryFlag
		}
		if *cluster != "" {
			cfg.Cluster = *cluster
		}
		if *ledgerAddr != "" {
			cfg.LedgerAddr = *ledgerAddr
		}
		if *readOnly {
			cfg.ReadOnly = true
		}
		if cfg.Treasury == "" {
			return nil, fmt.Errorf("no treasury account configured (use --treasury)")
		}
		return cfg, nil
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.opentreasury/config.json"
}

func newService(cfg *config.Config, withLedger bool) (*treasury.Service, func(), error) {
	store, err := localfs.New(cfg.StorePath)
	if err != nil {
		return nil, nil, err
	}
	opts := treasury.Options{
		Store:    store,
		Log:      logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
		Cluster:  cfg.Cluster,
		Treasury: cfg.Treasury,
	}
	if cfg.ReadOnly {
		opts.Mode = treasury.ReadOnly
	}
	closeFn := func() {}
	if withLedger {
		client, err := grpcledger.Dial(cfg.LedgerAddr, grpcledger.DialOptions{Timeout: 10 * time.Second})
		if err != nil {
			return nil, nil, err
		}
		client.Timeout = 30 * time.Second
		opts.Query = client
		opts.Submission = client
		closeFn = func() { _ = client.Close() }
	}
	return treasury.New(opts), closeFn, nil
}

func cmdAnnotate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	sig := fs.String("sig", "", "transaction signature")
	label := fs.String("label", "", "category label")
	custom := fs.String("custom", "", "custom sub-category (Other only)")
	note := fs.String("note", "", "description")
	proofURL := fs.String("proof-url", "", "supporting document URL")
	clear := fs.Bool("clear", false, "remove the annotation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	svc, closeFn, err := newService(cfg, false)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	ctx := context.Background()
	if *clear {
		if err := svc.ClearAnnotation(ctx, *sig); err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		fmt.Fprintf(out, "cleared %s\n", *sig)
		return 0
	}

	parsed, err := otms.ParseLabel(*label)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	ann := otms.Annotation{
		Label:    parsed,
		Note:     otms.Note{CustomCategory: *custom, Description: *note},
		ProofURL: *proofURL,
	}
	if err := svc.SaveAnnotation(ctx, *sig, ann); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "annotated %s as %s\n", *sig, parsed)
	return 0
}

func cmdExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	outFile := fs.String("out", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	svc, closeFn, err := newService(cfg, false)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	b, err := svc.Export(context.Background())
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if *outFile != "" {
		if err := os.WriteFile(*outFile, append(b, '\n'), 0o644); err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		return 0
	}
	fmt.Fprintln(out, string(b))
	return 0
}

func cmdImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: otms import <file>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	svc, closeFn, err := newService(cfg, false)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	if err := svc.Import(context.Background(), raw); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, "imported")
	return 0
}

func cmdDigest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	svc, closeFn, err := newService(cfg, false)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	rec, err := svc.GenerateProof(context.Background())
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "digest: %s\n", rec.DigestHex)
	fmt.Fprintf(out, "cid:    %s\n", rec.CID)
	return 0
}

func cmdAnchor(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("anchor", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	keyPath := fs.String("key", "", "signing key file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if *keyPath == "" {
		*keyPath = cfg.KeyPath
	}
	kp, err := keys.Load(*keyPath)
	if err != nil {
		fmt.Fprintf(errOut, "load signing key: %v (run `otms key init`)\n", err)
		return 1
	}
	svc, closeFn, err := newService(cfg, true)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	txID, rec, err := svc.AnchorProof(context.Background(), kp)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "anchored digest %s\n", rec.DigestHex)
	fmt.Fprintf(out, "transaction: %s\n", txID)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	txID := fs.String("tx", "", "anchoring transaction id")
	docFile := fs.String("doc", "", "OTMS document file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	var docJSON string
	if *docFile != "" {
		raw, err := os.ReadFile(*docFile)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		docJSON = string(raw)
	}
	svc, closeFn, err := newService(cfg, true)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	res, err := svc.Verify(context.Background(), *txID, docJSON)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "verdict: %s\n", res.Verdict)
	if res.ComputedHash != "" {
		fmt.Fprintf(out, "computed hash: %s\n", res.ComputedHash)
	}
	if res.MemoHash != "" {
		fmt.Fprintf(out, "memo hash:     %s\n", res.MemoHash)
	}
	if res.Detail != "" {
		fmt.Fprintf(out, "detail: %s\n", res.Detail)
	}
	if res.MemoText != "" {
		fmt.Fprintf(out, "memo:\n%s\n", res.MemoText)
	}
	if !res.OK() {
		return 1
	}
	return 0
}

func cmdDecodeMemo(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("decode-memo", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: otms decode-memo <file>")
		return 2
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	memo, err := anchor.Decode(string(raw))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "treasury:  %s\n", memo.Treasury)
	fmt.Fprintf(out, "hash:      %s\n", memo.DigestHex)
	fmt.Fprintf(out, "timestamp: %s\n", memo.TimestampISO)
	return 0
}

func cmdBalance(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	svc, closeFn, err := newService(cfg, true)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	bal, err := svc.LoadBalance(context.Background())
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "%d\n", bal)
	return 0
}

func cmdHistory(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(errOut)
	load := commonFlags(fs)
	limit := fs.Int("limit", 25, "maximum entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	svc, closeFn, err := newService(cfg, true)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	infos, err := svc.LoadHistory(context.Background(), *limit)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	for _, info := range infos {
		status := "ok"
		if info.Err != "" {
			status = "failed"
		}
		fmt.Fprintf(out, "%s\tslot=%d\t%s\n", info.Signature, info.Slot, status)
	}
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: otms key init|show")
		return 2
	}
	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("key init", flag.ContinueOnError)
		fs.SetOutput(errOut)
		cfgPath := fs.String("config", defaultConfigPath(), "config file")
		keyPath := fs.String("key", "", "key file to create")
		force := fs.Bool("force", false, "overwrite an existing key")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		if *keyPath == "" {
			*keyPath = cfg.KeyPath
		}
		if _, err := os.Stat(*keyPath); err == nil && !*force {
			fmt.Fprintf(errOut, "key file %s already exists (use --force)\n", *keyPath)
			return 1
		}
		kp, err := keys.Generate()
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		if err := kp.Save(*keyPath); err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		id, _ := kp.Identity()
		fmt.Fprintf(out, "created %s\nidentity: %s\n", *keyPath, id)
		return 0
	case "show":
		fs := flag.NewFlagSet("key show", flag.ContinueOnError)
		fs.SetOutput(errOut)
		cfgPath := fs.String("config", defaultConfigPath(), "config file")
		keyPath := fs.String("key", "", "key file")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		if *keyPath == "" {
			*keyPath = cfg.KeyPath
		}
		kp, err := keys.Load(*keyPath)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		id, err := kp.Identity()
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		fmt.Fprintf(out, "identity: %s\n", id)
		return 0
	default:
		fmt.Fprintln(errOut, "usage: otms key init|show")
		return 2
	}
}
