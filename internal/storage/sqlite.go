package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"flashwire/internal/feed"
	"flashwire/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open creates (or opens) the sqlite database at cfg.Path and runs the
// embedded migrations.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage: sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AdmitNew inserts each title with insert-if-absent semantics and reports
// the novel subset in input order. A failed insert is logged and skipped;
// it never aborts the rest of the batch.
func (s *sqliteStore) AdmitNew(ctx context.Context, items []feed.Item) ([]feed.Item, error) {
	novel := make([]feed.Item, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO news(title, link) VALUES(?,?)
			 ON CONFLICT(title) DO NOTHING`,
			it.Title, it.Link,
		)
		if err != nil {
			s.log.Warn("news insert failed", logx.String("title", it.Title), logx.Err(err))
			continue
		}
		n, err := res.RowsAffected()
		if err != nil {
			s.log.Warn("news insert result unreadable", logx.String("title", it.Title), logx.Err(err))
			continue
		}
		if n > 0 {
			novel = append(novel, it)
		}
	}
	return novel, nil
}

func (s *sqliteStore) RegisterRecipient(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(chat_id) VALUES(?)
		 ON CONFLICT(chat_id) DO NOTHING`,
		chatID,
	)
	if err != nil {
		return fmt.Errorf("storage: register recipient %d: %w", chatID, err)
	}
	return nil
}

func (s *sqliteStore) Recipients(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list recipients: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
