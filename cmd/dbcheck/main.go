// dbcheck は DATABASE_URL への接続と session_records テーブルの作成を確認するツールです。
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
)

func main() {
	config.LoadDotEnv()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}
	dialect, err := database.ParseDialect(os.Getenv("DATABASE_DRIVER"))
	if err != nil {
		log.Fatalf("エラー: %v", err)
	}

	fmt.Printf("テスト開始: データベース接続を試行中 (%s)...\n", dialect)

	svc, err := database.NewDatabaseService(dialect, databaseURL)
	if err != nil {
		log.Fatalf("エラー: %v", err)
	}
	defer svc.Close()
	fmt.Println("成功: データベースに正常に接続し、Pingが成功しました！")

	if version, err := svc.ServerVersion(); err != nil {
		log.Printf("警告: %v", err)
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	if err := svc.EnsureSchema(); err != nil {
		log.Fatalf("エラー: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	records, err := database.NewRecordRepository(svc).GetRecentRecords(ctx, 5)
	if err != nil {
		log.Fatalf("エラー: session_records の読み取りに失敗しました: %v", err)
	}
	fmt.Printf("session_records: 直近 %d 件\n", len(records))
	for _, r := range records {
		fmt.Printf("  %s user=%s pieces=%d rows=%d (%s)\n", r.ID, r.UserID, r.PiecesLocked, r.RowsCleared, r.Duration().Round(time.Millisecond))
	}
}
