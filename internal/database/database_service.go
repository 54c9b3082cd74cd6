package database

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQLドライバー
	_ "github.com/lib/pq"              // PostgreSQLドライバー
)

// Dialect は接続先データベースの種類です。プレースホルダとスキーマの書き方が変わります。
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// ParseDialect は DATABASE_DRIVER の値を Dialect に変換します。空文字列は postgres です。
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	default:
		return "", fmt.Errorf("未対応のデータベースドライバーです: %q", driver)
	}
}

// Placeholder は n 番目（1始まり）のバインド変数を返します。
func (d Dialect) Placeholder(n int) string {
	if d == DialectMySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// Placeholders は 1 から n までのバインド変数をカンマ区切りで返します。
func (d Dialect) Placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.Placeholder(i + 1)
	}
	return strings.Join(ps, ", ")
}

// DatabaseService provides methods for interacting with the database.
type DatabaseService struct {
	DB      *sql.DB
	Dialect Dialect
}

// NewDatabaseService creates a new instance of DatabaseService and establishes a database connection.
// MySQL の場合、時刻を読み取るために DSN に parseTime=true が必要です。
func NewDatabaseService(dialect Dialect, databaseURL string) (*DatabaseService, error) {
	log.Printf("データベース接続を試行中 (%s): URLの最初の50文字: %s...", dialect, databaseURL[:min(len(databaseURL), 50)])
	db, err := sql.Open(string(dialect), databaseURL)
	if err != nil {
		log.Printf("DatabaseService Error: sql.Openに失敗しました: %v", err)
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	// データベース接続の確認 (Ping)
	if err := db.Ping(); err != nil {
		log.Printf("DatabaseService Error: db.Pingに失敗しました: %v", err)
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Println("データベースに正常に接続しました。")
	return &DatabaseService{DB: db, Dialect: dialect}, nil
}

// NewDatabaseServiceFromDB は既存の接続からサービスを作成します（テスト用）。
func NewDatabaseServiceFromDB(db *sql.DB, dialect Dialect) *DatabaseService {
	return &DatabaseService{DB: db, Dialect: dialect}
}

// schemaStatements はテーブル作成のDDLです。
// seed は uint64 をそのまま持てない DB があるため10進文字列で保存します。
var schemaStatements = map[Dialect][]string{
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS session_records (
			id            VARCHAR(36) PRIMARY KEY,
			user_id       VARCHAR(64) NOT NULL,
			seed          VARCHAR(20) NOT NULL,
			pieces_locked INTEGER     NOT NULL,
			rows_cleared  INTEGER     NOT NULL,
			ticks         INTEGER     NOT NULL,
			started_at    TIMESTAMPTZ NOT NULL,
			ended_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_records_ended_at ON session_records (ended_at DESC)`,
	},
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS session_records (
			id            VARCHAR(36) PRIMARY KEY,
			user_id       VARCHAR(64) NOT NULL,
			seed          VARCHAR(20) NOT NULL,
			pieces_locked INT         NOT NULL,
			rows_cleared  INT         NOT NULL,
			ticks         INT         NOT NULL,
			started_at    DATETIME(6) NOT NULL,
			ended_at      DATETIME(6) NOT NULL,
			INDEX idx_session_records_ended_at (ended_at)
		)`,
	},
}

// EnsureSchema は必要なテーブルが無ければ作成します。
func (s *DatabaseService) EnsureSchema() error {
	statements, ok := schemaStatements[s.Dialect]
	if !ok {
		return fmt.Errorf("未対応のデータベースドライバーです: %q", s.Dialect)
	}
	for _, stmt := range statements {
		if _, err := s.DB.Exec(stmt); err != nil {
			return fmt.Errorf("スキーマの作成に失敗しました: %w", err)
		}
	}
	log.Printf("DatabaseService Info: スキーマを確認しました (%s)", s.Dialect)
	return nil
}

// ServerVersion は接続先のバージョン文字列を返します。
func (s *DatabaseService) ServerVersion() (string, error) {
	query := "SELECT version()"
	if s.Dialect == DialectMySQL {
		query = "SELECT VERSION()"
	}
	var version string
	if err := s.DB.QueryRow(query).Scan(&version); err != nil {
		return "", fmt.Errorf("バージョンの取得に失敗しました: %w", err)
	}
	return version, nil
}

// Close は接続を閉じます。
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}
