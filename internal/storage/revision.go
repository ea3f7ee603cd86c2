package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
)

// Revision is a saved snapshot of a page's blocks.
type Revision struct {
	ID        string         `json:"id"`
	PageID    string         `json:"pageId"`
	Label     string         `json:"label"`
	Blocks    []domain.Block `json:"blocks,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// RevisionStore keeps a bounded history of page snapshots in SQLite.
type RevisionStore struct {
	db  *DB
	max int
}

// NewRevisionStore keeps at most max revisions per page (40 when max < 1).
func NewRevisionStore(db *DB, max int) *RevisionStore {
	if max < 1 {
		max = 40
	}
	return &RevisionStore{db: db, max: max}
}

// Push records a snapshot of blocks and prunes the oldest revisions.
func (s *RevisionStore) Push(pageID, label string, blocks []domain.Block) (*Revision, error) {
	encoded := make([]map[string]any, len(blocks))
	kinds := make([]string, len(blocks))
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		encoded[i] = domain.EncodeProps(b)
		kinds[i] = b.Kind
		ids[i] = b.ID
	}
	snapshot, err := json.Marshal(revisionSnapshot{IDs: ids, Kinds: kinds, Props: encoded})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	rev := &Revision{
		ID:        uuid.NewString(),
		PageID:    pageID,
		Label:     label,
		Blocks:    blocks,
		CreatedAt: timestamp(),
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO page_revisions (id, page_id, label, snapshot_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		rev.ID, rev.PageID, rev.Label, string(snapshot), rev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}

	if err := s.prune(pageID); err != nil {
		return nil, err
	}
	return rev, nil
}

type revisionSnapshot struct {
	IDs   []string         `json:"ids"`
	Kinds []string         `json:"kinds"`
	Props []map[string]any `json:"props"`
}

func (r revisionSnapshot) blocks() []domain.Block {
	out := make([]domain.Block, 0, len(r.IDs))
	for i := range r.IDs {
		if i >= len(r.Kinds) || i >= len(r.Props) {
			break
		}
		out = append(out, domain.DecodeBlock(r.IDs[i], r.Kinds[i], r.Props[i]))
	}
	return out
}

// List returns the revisions of a page, newest first, without snapshots.
func (s *RevisionStore) List(pageID string) ([]Revision, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, page_id, label, created_at FROM page_revisions
		 WHERE page_id = ? ORDER BY rowid DESC`, pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	revs := []Revision{}
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.PageID, &r.Label, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// Get returns one revision with its blocks.
func (s *RevisionStore) Get(id string) (*Revision, error) {
	var (
		r        Revision
		snapshot string
	)
	err := s.db.Conn().QueryRow(
		`SELECT id, page_id, label, snapshot_json, created_at FROM page_revisions WHERE id = ?`, id,
	).Scan(&r.ID, &r.PageID, &r.Label, &snapshot, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revision %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	var snap revisionSnapshot
	if err := json.Unmarshal([]byte(snapshot), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	r.Blocks = snap.blocks()
	return &r, nil
}

// ClearPage removes all revisions of a page.
func (s *RevisionStore) ClearPage(pageID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM page_revisions WHERE page_id = ?`, pageID)
	return err
}

// prune removes the oldest revisions beyond the limit.
func (s *RevisionStore) prune(pageID string) error {
	_, err := s.db.Conn().Exec(
		`DELETE FROM page_revisions WHERE page_id = ? AND id NOT IN (
			SELECT id FROM page_revisions WHERE page_id = ? ORDER BY rowid DESC LIMIT ?
		)`,
		pageID, pageID, s.max,
	)
	if err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return nil
}
