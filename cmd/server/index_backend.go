package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxedit.ai/internal/persistence/indexdb"
	"voxedit.ai/internal/sim/engine"
	"voxedit.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	engine.TickLogger
	engine.AuditLogger
	Close() error
	UpsertTuning(tune tuning.Tuning) error
}

func openRuntimeIndex(dataDir, source string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VE_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(dataDir, "index", "edits.sqlite")
		return indexdb.OpenSQLite(dbPath)
	case "http":
		endpoint := strings.TrimSpace(os.Getenv("VE_INDEX_HTTP_INGEST_URL"))
		token := strings.TrimSpace(os.Getenv("VE_INDEX_HTTP_TOKEN"))
		if endpoint == "" {
			return nil, fmt.Errorf("VE_INDEX_BACKEND=http but VE_INDEX_HTTP_INGEST_URL is empty")
		}
		flushMS := envInt("VE_INDEX_HTTP_FLUSH_MS", 500)
		batchSize := envInt("VE_INDEX_HTTP_BATCH_SIZE", 128)
		idx, err := indexdb.OpenHTTP(indexdb.HTTPConfig{
			Endpoint:      endpoint,
			Token:         token,
			Source:        source,
			BatchSize:     batchSize,
			FlushInterval: time.Duration(flushMS) * time.Millisecond,
			MaxRetained:   envInt("VE_INDEX_HTTP_MAX_RETAINED", 4096),
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported VE_INDEX_BACKEND: %s", backend)
	}
}
