// blockfall は端末で1人プレイするクライアントです。-replay を付けると記録を再生して結果だけを表示します。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	game "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "game config YAML (default: embedded)")
	logPath := flag.String("log", "", "write logs to this file (default: discard)")
	seed := flag.Uint64("seed", 0, "piece generator seed (default: current time)")
	recordPath := flag.String("record", "", "save the playthrough to this YAML file on exit")
	replayPath := flag.String("replay", "", "replay a recorded playthrough and print the result")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	// 画面を使っている間は標準エラーに書けないのでファイルか破棄
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build catalog: %v\n", err)
		os.Exit(1)
	}

	if *replayPath != "" {
		if err := replay(cfg.Settings(), catalog, *replayPath); err != nil {
			fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := play(cfg.Settings(), catalog, *seed, *recordPath, *mute); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func play(settings game.Settings, catalog *tetris.Catalog, seed uint64, recordPath string, mute bool) error {
	if seed == 0 {
		seed = tetris.EntropySeed()
	}
	session, err := game.NewGameSession(settings, catalog, seed, nil)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if recordPath != "" {
		session.StartRecording()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}

	var sound *tui.SoundPlayer
	if !mute {
		sound = tui.NewSoundPlayer()
		if err := sound.Init(); err != nil {
			// 音が出なくてもゲームは続ける
			log.Printf("Audio initialization failed: %v", err)
			sound = nil
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tui.NewApp(screen, session, sound).Run(ctx)

	if sound != nil {
		sound.Close()
	}
	screen.Fini()

	stats := session.Stats()
	fmt.Printf("seed %d: %d pieces, %d rows cleared (%s)\n", session.Seed(), stats.PiecesLocked, stats.RowsCleared, session.Phase())

	if recordPath != "" {
		if err := saveRecording(session, recordPath); err != nil {
			return err
		}
		fmt.Printf("playthrough saved to %s\n", recordPath)
	}
	return nil
}

func saveRecording(session *game.GameSession, path string) (err error) {
	recording, ok := session.Recording()
	if !ok {
		return fmt.Errorf("no recording available")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return game.WritePlaythrough(f, recording)
}

func replay(settings game.Settings, catalog *tetris.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := game.ReadPlaythrough(f)
	if err != nil {
		return err
	}
	session, err := game.Replay(settings, catalog, p)
	if err != nil {
		return err
	}

	stats := session.Stats()
	fmt.Printf("seed %d, %d frames: %d pieces, %d rows cleared (%s)\n",
		p.Seed, len(p.Frames), stats.PiecesLocked, stats.RowsCleared, session.Phase())
	fmt.Print(boardText(session.Board()))
	return nil
}

// boardText は表示領域を上の行から文字で表します。
func boardText(board *tetris.Board) string {
	var sb strings.Builder
	for row := board.MainRows() - 1; row >= 0; row-- {
		sb.WriteByte('|')
		for col := 0; col < board.Cols(); col++ {
			if board.Occupied(row, col) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
