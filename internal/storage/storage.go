package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"telegram-post-guard/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// DB is the sqlite-backed warning ledger.
type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	// one writer at a time; every ledger statement is a single atomic upsert
	db.SetMaxOpenConns(1)
	if err = migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ---------- warns -----------------------------------------------------------

func (d *DB) GetCount(ctx context.Context, chatID, userID int64) (uint, error) {
	var c uint
	err := d.QueryRowContext(ctx,
		`SELECT count FROM warns WHERE chat_id=? AND user_id=?`, chatID, userID,
	).Scan(&c)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return c, err
}

func (d *DB) AddWarn(ctx context.Context, chatID, userID int64) (uint, error) {
	var c uint
	err := d.QueryRowContext(ctx, `
        INSERT INTO warns (chat_id, user_id, count, updated_at)
        VALUES (?,?,1,?)
        ON CONFLICT(chat_id, user_id) DO UPDATE SET count=count+1,
            updated_at=excluded.updated_at
        RETURNING count
    `, chatID, userID, time.Now().Unix()).Scan(&c)
	return c, err
}

func (d *DB) ResetWarn(ctx context.Context, chatID, userID int64) error {
	_, err := d.ExecContext(ctx, `DELETE FROM warns WHERE chat_id=? AND user_id=?`, chatID, userID)
	return err
}

// ListWarns returns every record of a chat, highest count first.
func (d *DB) ListWarns(ctx context.Context, chatID int64) ([]models.WarnRecord, error) {
	rows, err := d.QueryContext(ctx, `
        SELECT chat_id, user_id, count, updated_at
        FROM warns WHERE chat_id=?
        ORDER BY count DESC, user_id`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.WarnRecord
	for rows.Next() {
		var r models.WarnRecord
		if err := rows.Scan(&r.ChatID, &r.UserID, &r.Count, &r.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
