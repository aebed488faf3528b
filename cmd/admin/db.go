package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxelpump.ai/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	runID := fs.String("run", "", "run id (optional; defaults to latest)")
	action := fs.String("action", "", "audit action filter (audit)")
	tick := fs.Uint64("tick", 0, "tick (digest)")
	limit := fs.Int("limit", 20, "result limit (audit)")
	_ = fs.Parse(args)

	q := "runs"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	runs, err := idx.Runs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if q == "runs" {
		printJSON(runs)
		return
	}

	run := strings.TrimSpace(*runID)
	if run == "" {
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "no runs found")
			os.Exit(2)
		}
		run = runs[len(runs)-1].RunID
	}

	switch q {
	case "audit":
		rows, err := idx.AuditEvents(run, strings.ToUpper(strings.TrimSpace(*action)))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if *limit > 0 && len(rows) > *limit {
			rows = rows[:*limit]
		}
		printJSON(rows)
	case "counts":
		rows, err := idx.ActionCounts(run)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		printJSON(rows)
	case "digest":
		d, err := idx.TickDigest(run, *tick)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(d)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(want runs|audit|counts|digest)")
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
