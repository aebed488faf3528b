package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxelpump.ai/internal/persistence/indexdb"
)

func openIndex(worldDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VP_INDEX_BACKEND")))
	switch backend {
	case "", "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	case "none", "off", "disabled":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported VP_INDEX_BACKEND: %s", backend)
	}
}
