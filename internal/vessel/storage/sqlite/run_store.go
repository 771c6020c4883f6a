package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/vesseltrace/internal/timeutil"
	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/registry"
)

// Kind tells which pass produced a stored registry.
type Kind string

const (
	KindTrace     Kind = "trace"
	KindMerged    Kind = "merged"
	KindSegmented Kind = "segmented"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored registry.
type Run struct {
	RunID        string          `json:"run_id"`
	ParentRunID  string          `json:"parent_run_id,omitempty"`
	Kind         Kind            `json:"kind"`
	Depth        int             `json:"depth"`
	NestedLimit  int             `json:"nested_limit"`
	LastBranchID int             `json:"last_branch_id"`
	BranchCount  int             `json:"branch_count"`
	AreaCount    int             `json:"area_count"`
	ParamsJSON   json.RawMessage `json:"params_json,omitempty"`
	CreatedAt    int64           `json:"created_at"`
}

// RunStore provides persistence for traced registries.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a new RunStore stamping runs from the wall clock.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for CreatedAt.
func (s *RunStore) SetClock(c timeutil.Clock) {
	s.clock = c
}

// encodeContour stores a contour as [[x,y],...].
func encodeContour(c geometry.Contour) (string, error) {
	pts := make([][2]int, len(c))
	for i, p := range c {
		pts[i] = [2]int{p.X, p.Y}
	}
	b, err := json.Marshal(pts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeContour(s string) (geometry.Contour, error) {
	var pts [][2]int
	if err := json.Unmarshal([]byte(s), &pts); err != nil {
		return nil, err
	}
	c := make(geometry.Contour, len(pts))
	for i, p := range pts {
		c[i] = geometry.Point{X: p[0], Y: p[1]}
	}
	return c, nil
}

// Save persists reg as a new run. If RunID is empty, a UUID is generated;
// the descriptive counters are filled in from reg.
func (s *RunStore) Save(run *Run, reg *registry.Registry) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	if run.Kind == "" {
		run.Kind = KindTrace
	}
	live := reg.Live()
	run.Depth = reg.Depth()
	run.NestedLimit = reg.NestedLimit()
	run.LastBranchID = int(reg.LastID())
	run.BranchCount = len(live)
	run.AreaCount = 0
	for d := 0; d < reg.Depth(); d++ {
		run.AreaCount += len(reg.AreasAt(d))
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin save run: %w", err)
		}
		defer tx.Rollback()

		var params, parent interface{}
		if len(run.ParamsJSON) > 0 {
			params = string(run.ParamsJSON)
		}
		if run.ParentRunID != "" {
			parent = run.ParentRunID
		}
		if _, err := tx.Exec(`
			INSERT INTO trace_runs (
				run_id, parent_run_id, kind, depth, nested_limit, last_branch_id,
				branch_count, area_count, params_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, parent, string(run.Kind), run.Depth, run.NestedLimit, run.LastBranchID,
			run.BranchCount, run.AreaCount, params, run.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, id := range live {
			b := reg.Branch(id)
			if _, err := tx.Exec(`
				INSERT INTO trace_branches (run_id, branch_id, parent_id, reverse, length)
				VALUES (?, ?, ?, ?, ?)`,
				run.RunID, int(b.ID), int(b.Parent), b.Reverse, b.Length,
			); err != nil {
				return fmt.Errorf("insert branch %d: %w", b.ID, err)
			}
		}

		stmt, err := tx.Prepare(`
			INSERT INTO trace_areas (run_id, depth, seq, branch_id, predicted, contour_json)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare area insert: %w", err)
		}
		defer stmt.Close()
		for d := 0; d < reg.Depth(); d++ {
			for seq, a := range reg.AreasAt(d) {
				contour, err := encodeContour(a.Contour)
				if err != nil {
					return fmt.Errorf("encode contour at depth %d: %w", d, err)
				}
				if _, err := stmt.Exec(run.RunID, d, seq, int(a.Branch), a.Predicted, contour); err != nil {
					return fmt.Errorf("insert area at depth %d: %w", d, err)
				}
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, parent_run_id, kind, depth, nested_limit, last_branch_id,
		       branch_count, area_count, params_json, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r      Run
		kind   string
		parent sql.NullString
		params sql.NullString
	)
	if err := row.Scan(
		&r.RunID, &parent, &kind, &r.Depth, &r.NestedLimit, &r.LastBranchID,
		&r.BranchCount, &r.AreaCount, &params, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Kind = Kind(kind)
	r.ParentRunID = parent.String
	if params.Valid {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	return &r, nil
}

// List returns all runs, newest first.
func (s *RunStore) List() ([]*Run, error) {
	rows, err := s.db.Query(`SELECT ` + runColumns + ` FROM trace_runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns a single run by id.
func (s *RunStore) Get(runID string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM trace_runs WHERE run_id = ?`, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// Load rebuilds the stored registry of a run. Branch ids, parents and the
// id high-water mark are preserved; area order within a depth is the
// order they were saved in.
func (s *RunStore) Load(runID string) (*registry.Registry, *Run, error) {
	run, err := s.Get(runID)
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New(run.Depth, run.NestedLimit)
	reg.RaiseLastID(registry.BranchID(run.LastBranchID))

	rows, err := s.db.Query(`
		SELECT branch_id, parent_id, reverse
		FROM trace_branches
		WHERE run_id = ?
		ORDER BY branch_id`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("query branches: %w", err)
	}
	for rows.Next() {
		var id, parent int
		var reverse bool
		if err := rows.Scan(&id, &parent, &reverse); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan branch row: %w", err)
		}
		if _, err := reg.Restore(registry.BranchID(id), registry.BranchID(parent), reverse); err != nil {
			rows.Close()
			return nil, nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	rows, err = s.db.Query(`
		SELECT depth, branch_id, predicted, contour_json
		FROM trace_areas
		WHERE run_id = ?
		ORDER BY depth, seq`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("query areas: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			depth, id int
			predicted bool
			contour   string
		)
		if err := rows.Scan(&depth, &id, &predicted, &contour); err != nil {
			return nil, nil, fmt.Errorf("scan area row: %w", err)
		}
		c, err := decodeContour(contour)
		if err != nil {
			return nil, nil, fmt.Errorf("decode contour at depth %d: %w", depth, err)
		}
		if err := reg.AddArea(depth, registry.BranchID(id), c, predicted); err != nil {
			return nil, nil, err
		}
	}
	return reg, run, rows.Err()
}

// Delete removes a run with its branches and areas.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin delete run: %w", err)
		}
		defer tx.Rollback()

		for _, table := range []string{"trace_areas", "trace_branches"} {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		result, err := tx.Exec(`DELETE FROM trace_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
		}
		return tx.Commit()
	})
}
