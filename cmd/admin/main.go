package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"voxelpump.ai/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	path := fs.String("path", "", "snapshot path")
	full := fs.Bool("full", false, "decode the body and list running pumps")
	_ = fs.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}
	if !*full {
		h, err := snapshot.ReadHeader(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read header:", err)
			os.Exit(1)
		}
		fmt.Printf("snapshot v%d world=%s run=%s tick=%d\n", h.Version, h.WorldID, h.RunID, h.Tick)
		return
	}
	snap, err := snapshot.ReadSnapshot(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d world=%s run=%s tick=%d seed=%d dimension=%s liquid=%s detect=%s chunks=%d agents=%d claims=%d furnaces=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.RunID, snap.Header.Tick, snap.Seed, snap.Dimension,
		snap.PumpLiquid, snap.PumpDetect, len(snap.Chunks), len(snap.Agents), len(snap.Claims), len(snap.Furnaces))
	for _, p := range snap.Pumps {
		fmt.Printf("pump %s owner=%s anchor=%v stage=%s tube=%d progress=%d/%d next_tick=%d\n",
			p.ID, p.Owner, p.Anchor, p.Stage, len(p.Tube), p.Progress, p.TotalCells, p.NextTick)
	}
}
