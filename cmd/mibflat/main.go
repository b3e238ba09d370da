// Command mibflat parses MIB files into flat rows, printed as TSV or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golangsnmp/mibflat"
	"github.com/golangsnmp/mibflat/mib"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mibflat:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "TOML config file")
		dir        = flag.String("dir", "", "parse every MIB file in this directory")
		format     = flag.String("format", "tsv", "output format: tsv or json")
		force      = flag.Bool("force", false, "recompile even when artifacts exist")
		verbose    = flag.Bool("v", false, "debug logging")
		trace      = flag.Bool("vv", false, "trace logging")
	)
	flag.Parse()

	if *dir == "" && flag.NArg() == 0 {
		return fmt.Errorf("nothing to parse: pass -dir or file arguments")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	if *trace {
		level = mibflat.LevelTrace
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := mibflat.DefaultConfig()
	if *configPath != "" {
		loaded, err := mibflat.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := []mibflat.Option{mibflat.WithLogger(logger)}
	if *force {
		opts = append(opts, mibflat.WithForceRecompile())
	}

	svc, err := mibflat.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rows []mib.Row
	if *dir != "" {
		batch, err := svc.ParseDir(ctx, *dir)
		if batch != nil {
			for _, f := range batch.Files {
				rows = append(rows, f.Rows...)
			}
			for _, w := range batch.Warnings {
				logger.Warn(w)
			}
			if len(batch.MissingDependencies) > 0 {
				logger.Warn("missing dependencies",
					slog.String("modules", strings.Join(batch.MissingDependencies, ", ")))
			}
		}
		if err != nil {
			return err
		}
	}
	for _, path := range flag.Args() {
		res, err := svc.ParseFile(ctx, path)
		if err != nil {
			return err
		}
		rows = append(rows, res.Rows...)
	}

	switch *format {
	case "json":
		return writeJSON(os.Stdout, rows)
	case "tsv":
		return writeTSV(os.Stdout, rows)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func writeJSON(w *os.File, rows []mib.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeTSV(w *os.File, rows []mib.Row) error {
	if _, err := fmt.Fprintln(w, strings.Join([]string{
		"module", "name", "oid", "kind", "status", "access", "syntax", "base_syntax",
		"tc_name", "tc_base_type", "notification", "object", "seq",
	}, "\t")); err != nil {
		return err
	}
	for _, r := range rows {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.Module, r.Name, r.OID, r.Kind, r.Status, r.Access, r.SyntaxType, r.BaseSyntax,
			r.TCName, r.TCBaseType, r.NotificationName, r.ObjectName, r.ObjectSequence)
		if err != nil {
			return err
		}
	}
	return nil
}
