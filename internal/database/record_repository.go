package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models"
)

// ErrRecordNotFound は指定したIDの記録が存在しないことを表します。
var ErrRecordNotFound = errors.New("session record not found")

// RecordRepository はセッション記録関連のデータベース操作を定義するインターフェースです。
type RecordRepository interface {
	// CreateRecord は終了したセッションの記録を保存します
	CreateRecord(ctx context.Context, record *models.SessionRecord) error

	// GetRecentRecords は終了日時の新しい順に最大 limit 件の記録を取得します
	GetRecentRecords(ctx context.Context, limit int) ([]models.SessionRecord, error)

	// GetRecordByID は指定したIDの記録を取得します
	GetRecordByID(ctx context.Context, id string) (*models.SessionRecord, error)
}

// recordRepositoryImpl はRecordRepositoryインターフェースの実装です。
type recordRepositoryImpl struct {
	db      *sql.DB
	dialect Dialect
}

// NewRecordRepository はRecordRepositoryの新しいインスタンスを作成します。
func NewRecordRepository(svc *DatabaseService) RecordRepository {
	return &recordRepositoryImpl{db: svc.DB, dialect: svc.Dialect}
}

const recordColumns = "id, user_id, seed, pieces_locked, rows_cleared, ticks, started_at, ended_at"

// CreateRecord は終了したセッションの記録を保存します。
func (r *recordRepositoryImpl) CreateRecord(ctx context.Context, record *models.SessionRecord) error {
	query := "INSERT INTO session_records (" + recordColumns + ") VALUES (" + r.dialect.Placeholders(8) + ")"

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		strconv.FormatUint(record.Seed, 10),
		record.PiecesLocked,
		record.RowsCleared,
		record.Ticks,
		record.StartedAt,
		record.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("セッション記録の作成に失敗しました: %w", err)
	}
	return nil
}

// GetRecentRecords は終了日時の新しい順に記録を取得します。
func (r *recordRepositoryImpl) GetRecentRecords(ctx context.Context, limit int) ([]models.SessionRecord, error) {
	query := "SELECT " + recordColumns + " FROM session_records ORDER BY ended_at DESC LIMIT " + r.dialect.Placeholder(1)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("セッション記録の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	records := []models.SessionRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("セッション記録の取得中にエラーが発生しました: %w", err)
	}
	return records, nil
}

// GetRecordByID は指定したIDの記録を取得します。
func (r *recordRepositoryImpl) GetRecordByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	query := "SELECT " + recordColumns + " FROM session_records WHERE id = " + r.dialect.Placeholder(1)

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.SessionRecord, error) {
	var record models.SessionRecord
	var seed string
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&seed,
		&record.PiecesLocked,
		&record.RowsCleared,
		&record.Ticks,
		&record.StartedAt,
		&record.EndedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("セッション記録のスキャンに失敗しました: %w", err)
	}

	record.Seed, err = strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("シード値が不正です (%q): %w", seed, err)
	}
	return &record, nil
}
