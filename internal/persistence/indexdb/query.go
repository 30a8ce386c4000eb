package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"voxedit.ai/internal/sim/voxel"
)

// Reader runs read-only queries against an index file. It may be opened
// while the server is writing to it.
type Reader struct {
	db *sql.DB
}

func OpenReader(path string) (*Reader, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

type CommandRow struct {
	Tick    uint64   `json:"tick"`
	ActorID string   `json:"actor_id"`
	Name    string   `json:"name"`
	Args    []string `json:"args,omitempty"`
	Status  string   `json:"status,omitempty"`
	Code    string   `json:"code,omitempty"`
}

type DrainRow struct {
	Tick    uint64 `json:"tick"`
	ActorID string `json:"actor_id"`
	Applied int    `json:"applied"`
	Denied  int    `json:"denied"`
	Done    bool   `json:"done"`
	Aborted bool   `json:"aborted"`
	Changed int    `json:"changed"`
}

type AuditRow struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// Commands lists the newest commands first. An empty actor matches all.
func (r *Reader) Commands(ctx context.Context, actor string, limit int) ([]CommandRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tick,actor_id,name,args_json,COALESCE(status,''),COALESCE(code,'') FROM commands
		 WHERE (?1 = '' OR actor_id = ?1) ORDER BY tick DESC, seq DESC LIMIT ?2`, actor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommandRow
	for rows.Next() {
		var c CommandRow
		var args string
		if err := rows.Scan(&c.Tick, &c.ActorID, &c.Name, &args, &c.Status, &c.Code); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(args), &c.Args)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Drains lists the newest drain summaries first. An empty actor matches all.
func (r *Reader) Drains(ctx context.Context, actor string, limit int) ([]DrainRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tick,actor_id,applied,denied,done,aborted,changed FROM drains
		 WHERE (?1 = '' OR actor_id = ?1) ORDER BY tick DESC, actor_id LIMIT ?2`, actor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DrainRow
	for rows.Next() {
		var d DrainRow
		if err := rows.Scan(&d.Tick, &d.ActorID, &d.Applied, &d.Denied, &d.Done, &d.Aborted, &d.Changed); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// History lists every audited write at p, oldest first.
func (r *Reader) History(ctx context.Context, p voxel.Point, limit int) ([]AuditRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tick,actor,action,x,y,z,from_color,to_color,COALESCE(reason,'') FROM audits
		 WHERE x = ? AND y = ? AND z = ? ORDER BY tick, seq LIMIT ?`, p.X, p.Y, p.Z, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRow
	for rows.Next() {
		var a AuditRow
		if err := rows.Scan(&a.Tick, &a.Actor, &a.Action, &a.Pos[0], &a.Pos[1], &a.Pos[2], &a.From, &a.To, &a.Reason); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Tuning returns the stored tuning JSON and its digest.
func (r *Reader) Tuning(ctx context.Context) (digest string, raw json.RawMessage, err error) {
	var s string
	err = r.db.QueryRowContext(ctx, `SELECT digest,json FROM config WHERE name = 'tuning'`).Scan(&digest, &s)
	if err != nil {
		return "", nil, err
	}
	return digest, json.RawMessage(s), nil
}
