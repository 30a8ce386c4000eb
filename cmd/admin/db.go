package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxedit.ai/internal/persistence/indexdb"
	"voxedit.ai/internal/sim/voxel"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/edits.sqlite)")
	actor := fs.String("actor", "", "actor id filter (commands, drains)")
	pos := fs.String("pos", "", "voxel position x,y,z (history)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "commands"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "edits.sqlite")
	}
	r, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := runQuery(ctx, r, q, strings.TrimSpace(*actor), *pos, *limit, printJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if strings.HasPrefix(err.Error(), "usage:") {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runQuery(ctx context.Context, r *indexdb.Reader, q, actor, pos string, limit int, emit func(any)) error {
	switch q {
	case "commands":
		rows, err := r.Commands(ctx, actor, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, row := range rows {
			emit(row)
		}
	case "drains":
		rows, err := r.Drains(ctx, actor, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, row := range rows {
			emit(row)
		}
	case "history":
		v, err := parseVec3(pos)
		if err != nil {
			return fmt.Errorf("usage: admin db -pos x,y,z history (%v)", err)
		}
		rows, err := r.History(ctx, voxel.Point{X: v[0], Y: v[1], Z: v[2]}, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		for _, row := range rows {
			emit(row)
		}
	case "tuning":
		digest, raw, err := r.Tuning(ctx)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		emit(struct {
			Digest string          `json:"digest"`
			Tuning json.RawMessage `json:"tuning"`
		}{digest, raw})
	default:
		return fmt.Errorf("usage: admin db [-data ./data|-db PATH] [-actor ID] [-pos x,y,z] [-limit N] commands|drains|history|tuning (unknown query %q)", q)
	}
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
