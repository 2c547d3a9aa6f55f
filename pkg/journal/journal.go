package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"wg-deploy/pkg/model"
)

const DefaultPath = "/var/lib/wg-deploy/journal.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs(
	id TEXT PRIMARY KEY,
	command TEXT NOT NULL,
	status TEXT NOT NULL,
	port INTEGER,
	peers INTEGER,
	server TEXT,
	started_at INTEGER NOT NULL,
	finished_at INTEGER
);
CREATE TABLE IF NOT EXISTS stages(
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT,
	duration_ms INTEGER,
	ts INTEGER
);
CREATE INDEX IF NOT EXISTS idx_stages_run ON stages(run_id);
`

const writeTimeout = 2 * time.Second

// Journal is the local record of runs kept in sqlite.
type Journal struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

func Open(ctx context.Context, log *zap.Logger, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal open: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{db: db, log: log, now: time.Now}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Run is an open journal entry. It records stages as they complete.
type Run struct {
	ID string
	j  *Journal
	mu sync.Mutex
	n  int
}

func (j *Journal) Begin(ctx context.Context, command string) (*Run, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs(id, command, status, started_at) VALUES(?,?,?,?)`,
		id, command, "running", j.now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("journal begin: %w", err)
	}
	return &Run{ID: id, j: j}, nil
}

// ObserveStage stores one stage record. Write failures are logged only.
func (r *Run) ObserveStage(rec model.StageRecord) {
	r.mu.Lock()
	r.n++
	seq := r.n
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_, err := r.j.db.ExecContext(ctx,
		`INSERT INTO stages(run_id, seq, name, status, message, duration_ms, ts) VALUES(?,?,?,?,?,?,?)`,
		r.ID, seq, rec.Name, rec.Status, rec.Message, rec.Duration.Milliseconds(), rec.Timestamp.UnixNano())
	if err != nil {
		r.j.log.Warn("journal stage write failed", zap.String("run", r.ID), zap.String("stage", rec.Name), zap.Error(err))
	}
}

// Finish closes the entry with the final status and the resolved config.
func (r *Run) Finish(ctx context.Context, status string, cfg model.DeploymentConfig) error {
	_, err := r.j.db.ExecContext(ctx,
		`UPDATE runs SET status=?, port=?, peers=?, server=?, finished_at=? WHERE id=?`,
		status, cfg.Port, cfg.Peers, cfg.ServerAddress, r.j.now().UnixNano(), r.ID)
	if err != nil {
		return fmt.Errorf("journal finish: %w", err)
	}
	return nil
}

// Recent returns the newest runs first, each with its stages.
func (j *Journal) Recent(ctx context.Context, limit int) ([]model.RunRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, command, status, COALESCE(port,0), COALESCE(peers,0), COALESCE(server,''), started_at, COALESCE(finished_at,0)
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	var runs []model.RunRecord
	for rows.Next() {
		var (
			rec             model.RunRecord
			started, finish int64
		)
		if err := rows.Scan(&rec.ID, &rec.Command, &rec.Status, &rec.Port, &rec.Peers, &rec.Server, &started, &finish); err != nil {
			rows.Close()
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		rec.StartedAt = time.Unix(0, started).UTC()
		if finish > 0 {
			rec.FinishedAt = time.Unix(0, finish).UTC()
		}
		runs = append(runs, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		stages, err := j.stages(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Stages = stages
	}
	return runs, nil
}

func (j *Journal) stages(ctx context.Context, runID string) ([]model.StageRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT name, status, COALESCE(message,''), COALESCE(duration_ms,0), COALESCE(ts,0) FROM stages WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("journal stages: %w", err)
	}
	defer rows.Close()
	var out []model.StageRecord
	for rows.Next() {
		var (
			rec    model.StageRecord
			ms, ts int64
		)
		if err := rows.Scan(&rec.Name, &rec.Status, &rec.Message, &ms, &ts); err != nil {
			return nil, fmt.Errorf("journal scan stage: %w", err)
		}
		rec.Duration = time.Duration(ms) * time.Millisecond
		rec.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
