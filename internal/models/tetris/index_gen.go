package tetris

import (
	"math/rand/v2"
	"time"
)

// IndexGen はピースタイプと回転状態のインデックスを一様乱数で生成します。
// 出力はシードだけで決まるため、シードを保存すればリプレイできます。
type IndexGen struct {
	seed      uint64
	typeCount int
	rng       *rand.Rand
}

// NewIndexGen は指定したシードで生成器を作成します。
func NewIndexGen(typeCount int, seed uint64) *IndexGen {
	if typeCount <= 0 {
		panic("tetris: index generator needs at least one piece type")
	}
	return &IndexGen{
		seed:      seed,
		typeCount: typeCount,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// EntropySeed はシードが指定されない場合に使う、現在時刻由来のシードを返します。
func EntropySeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Seed は生成器のシードを返します。
func (g *IndexGen) Seed() uint64 {
	return g.seed
}

// RandType は [0, typeCount) のピースタイプを返します。
func (g *IndexGen) RandType() int {
	return g.rng.IntN(g.typeCount)
}

// RandRotation は [0, 4) の回転状態を返します。
func (g *IndexGen) RandRotation() int {
	return g.rng.IntN(RotationCount)
}
