// Command haushaltskasse-backup exports, imports or wipes the configured store.
//
//	haushaltskasse-backup export [-o file]
//	haushaltskasse-backup import <file>
//	haushaltskasse-backup wipe -yes
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"haushaltskasse/internal/backup"
	"haushaltskasse/internal/cli"
	"haushaltskasse/internal/ledger"
	applog "haushaltskasse/internal/log"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: haushaltskasse-backup export [-o file] | import <file> | wipe -yes")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentBackup)

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	res := cli.OpenBackend(ctx, logger.Logger, cfg)
	svc := cli.NewLedger(res, cfg)

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(ctx, svc, os.Args[2:])
	case "import":
		err = runImport(ctx, svc, os.Args[2:])
	case "wipe":
		err = runWipe(ctx, svc, os.Args[2:])
	default:
		cli.Cleanup(logger.Logger, "backend", res.Cleanup)
		usage()
	}

	cli.Cleanup(logger.Logger, "backend", res.Cleanup)
	if err != nil {
		logger.ErrorContext(ctx, "Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// runExport writes the document to -o, "-" meaning stdout. Without -o the
// dated backup name is used in the current directory.
func runExport(ctx context.Context, svc *ledger.Service, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "output file, - for stdout")
	_ = fs.Parse(args)

	now := time.Now()
	doc, err := backup.Export(ctx, svc.Store(), now)
	if err != nil {
		return err
	}
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	path := *out
	if path == "" {
		path = backup.FileName(now)
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(os.Stderr, "exported %d users, %d incomes, %d expenses to %s\n",
		len(doc.Users), len(doc.Incomes), len(doc.Expenses), path)
	return nil
}

func runImport(ctx context.Context, svc *ledger.Service, args []string) error {
	if len(args) != 1 {
		usage()
	}
	var (
		raw []byte
		err error
	)
	if args[0] == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	res := backup.Import(ctx, svc.Store(), raw)
	if !res.Success {
		return fmt.Errorf("import rejected: %s", res.Message)
	}
	svc.NotifyImported(ctx)
	fmt.Fprintln(os.Stderr, res.Message)
	return nil
}

func runWipe(ctx context.Context, svc *ledger.Service, args []string) error {
	fs := flag.NewFlagSet("wipe", flag.ExitOnError)
	yes := fs.Bool("yes", false, "confirm deleting every record")
	_ = fs.Parse(args)
	if !*yes {
		return fmt.Errorf("refusing to wipe without -yes")
	}
	return svc.ClearAll(ctx)
}
