// Package config はゲーム設定ファイルとサーバーの環境変数を読み込みます。
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
	game "github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalidConfig は設定ファイルの内容が不正な場合のエラーです。
var ErrInvalidConfig = errors.New("invalid game config")

// GridConfig はボードの大きさです。全体の行数は main_rows + hidden_rows です。
type GridConfig struct {
	MainRows   int `yaml:"main_rows"`
	HiddenRows int `yaml:"hidden_rows"`
	Cols       int `yaml:"cols"`
}

// TimingConfig はタイマーの設定です。
type TimingConfig struct {
	DropIntervalMs     int `yaml:"drop_interval_ms"`
	FastDropIntervalMs int `yaml:"fast_drop_interval_ms"`
	FastDropSteps      int `yaml:"fast_drop_steps"`
	FlashIntervalMs    int `yaml:"flash_interval_ms"`
	FlashToggles       int `yaml:"flash_toggles"`
}

// PieceConfig は1種類のピースです。
// Bitmaps は4つの回転状態それぞれについて、上の行から順に4x4の0/1を並べます。
type PieceConfig struct {
	Name    string    `yaml:"name"`
	Color   []int     `yaml:"color"`
	Bitmaps [][][]int `yaml:"bitmaps"`
}

// GameConfig は設定ファイル全体です。
type GameConfig struct {
	Grid   GridConfig    `yaml:"grid"`
	Timing TimingConfig  `yaml:"timing"`
	Pieces []PieceConfig `yaml:"pieces"`
}

// Default は埋め込みの既定設定を返します。
func Default() (*GameConfig, error) {
	return Parse(defaultYAML)
}

// Load は path の設定ファイルを読み込みます。path が空の場合は既定設定を返します。
//
// Parameters:
//   path : YAML ファイルのパス
// Returns:
//   *GameConfig: 検証済みの設定
//   error      : 読み込み・解析・検証に失敗した場合
func Load(path string) (*GameConfig, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました (%s): %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse は YAML を解析して検証します。
func Parse(data []byte) (*GameConfig, error) {
	var cfg GameConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定の整合性を検証します。ここで弾いたものはゲーム開始前の設定エラーになります。
func (c *GameConfig) Validate() error {
	if c.Grid.HiddenRows < 0 {
		return fmt.Errorf("%w: hidden_rows must not be negative (got %d)", ErrInvalidConfig, c.Grid.HiddenRows)
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(c.Pieces) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, tetris.ErrEmptyCatalog)
	}

	for i, p := range c.Pieces {
		if len(p.Color) != 4 {
			return fmt.Errorf("%w: piece %d (%q): color needs 4 components", ErrInvalidConfig, i, p.Name)
		}
		for _, v := range p.Color {
			if v < 0 || v > 255 {
				return fmt.Errorf("%w: piece %d (%q): color component %d out of range", ErrInvalidConfig, i, p.Name, v)
			}
		}
		if len(p.Bitmaps) != tetris.RotationCount {
			return fmt.Errorf("%w: piece %d (%q): needs %d rotations, got %d", ErrInvalidConfig, i, p.Name, tetris.RotationCount, len(p.Bitmaps))
		}
		for r, rows := range p.Bitmaps {
			if len(rows) != tetris.BitmapSize {
				return fmt.Errorf("%w: piece %d (%q) rotation %d: needs %d rows", ErrInvalidConfig, i, p.Name, r, tetris.BitmapSize)
			}
			for _, row := range rows {
				if len(row) != tetris.BitmapSize {
					return fmt.Errorf("%w: piece %d (%q) rotation %d: needs %d columns", ErrInvalidConfig, i, p.Name, r, tetris.BitmapSize)
				}
			}
		}
	}

	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Settings はゲームセッション用の設定値に変換します。
func (c *GameConfig) Settings() game.Settings {
	return game.Settings{
		Rows:             c.Grid.MainRows + c.Grid.HiddenRows,
		Cols:             c.Grid.Cols,
		MainRows:         c.Grid.MainRows,
		DropInterval:     time.Duration(c.Timing.DropIntervalMs) * time.Millisecond,
		FastDropInterval: time.Duration(c.Timing.FastDropIntervalMs) * time.Millisecond,
		FastDropSteps:    c.Timing.FastDropSteps,
		FlashInterval:    time.Duration(c.Timing.FlashIntervalMs) * time.Millisecond,
		FlashToggles:     c.Timing.FlashToggles,
	}
}

// Catalog はピース定義からカタログを構築します。
// ファイルでは上の行が先に書かれているので、ビットマップの行 0（最下段）が最後の行になります。
func (c *GameConfig) Catalog() (*tetris.Catalog, error) {
	types := make([]tetris.PieceType, 0, len(c.Pieces))
	for _, p := range c.Pieces {
		pt := tetris.PieceType{Name: p.Name}
		for i := 0; i < 4 && i < len(p.Color); i++ {
			pt.Color[i] = uint8(p.Color[i])
		}
		for r := 0; r < tetris.RotationCount && r < len(p.Bitmaps); r++ {
			rows := p.Bitmaps[r]
			for line := 0; line < tetris.BitmapSize && line < len(rows); line++ {
				row := tetris.BitmapSize - 1 - line
				for col := 0; col < tetris.BitmapSize && col < len(rows[line]); col++ {
					pt.Bitmaps[r][row][col] = rows[line][col] != 0
				}
			}
		}
		types = append(types, pt)
	}
	return tetris.NewCatalog(types)
}
