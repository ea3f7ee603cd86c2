package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// listBlocks returns the blocks of a page in editor order.
func listBlocks(q querier, pageID string) ([]domain.Block, error) {
	rows, err := q.Query(
		`SELECT id, kind, props_json FROM blocks WHERE page_id = ? ORDER BY position ASC`, pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	blocks := []domain.Block{}
	for rows.Next() {
		var id, kind, propsJSON string
		if err := rows.Scan(&id, &kind, &propsJSON); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		var props map[string]any
		if err := json.Unmarshal([]byte(propsJSON), &props); err != nil {
			return nil, fmt.Errorf("decode block %s: %w", id, err)
		}
		blocks = append(blocks, domain.DecodeBlock(id, kind, props))
	}
	return blocks, rows.Err()
}

// writeBlocks deletes every block of the page and inserts blocks in order.
func writeBlocks(x execer, pageID string, blocks []domain.Block) error {
	if _, err := x.Exec(`DELETE FROM blocks WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	for i, b := range blocks {
		props, err := json.Marshal(domain.EncodeProps(b))
		if err != nil {
			return fmt.Errorf("encode block %s: %w", b.ID, err)
		}
		_, err = x.Exec(
			`INSERT INTO blocks (page_id, id, position, kind, props_json) VALUES (?, ?, ?, ?, ?)`,
			pageID, b.ID, i, b.Kind, string(props),
		)
		if err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}
	return nil
}

// ReplacePageBlocks atomically replaces all blocks for a page.
func (s *PageStore) ReplacePageBlocks(pageID string, blocks []domain.Block) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := writeBlocks(tx, pageID, blocks); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE pages SET updated_at = ? WHERE id = ?`, timestamp(), pageID); err != nil {
		return fmt.Errorf("touch page: %w", err)
	}
	return tx.Commit()
}
