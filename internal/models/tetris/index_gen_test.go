package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexGen_DeterministicBySeed(t *testing.T) {
	a := NewIndexGen(7, 1234)
	b := NewIndexGen(7, 1234)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.RandType(), b.RandType())
		assert.Equal(t, a.RandRotation(), b.RandRotation())
	}
	assert.Equal(t, uint64(1234), a.Seed())
}

func TestIndexGen_Ranges(t *testing.T) {
	g := NewIndexGen(3, 99)
	seenTypes := map[int]bool{}
	seenRotations := map[int]bool{}

	for i := 0; i < 1000; i++ {
		typ := g.RandType()
		rot := g.RandRotation()
		assert.True(t, typ >= 0 && typ < 3)
		assert.True(t, rot >= 0 && rot < RotationCount)
		seenTypes[typ] = true
		seenRotations[rot] = true
	}

	assert.Len(t, seenTypes, 3)
	assert.Len(t, seenRotations, RotationCount)
}

func TestIndexGen_InvalidTypeCountPanics(t *testing.T) {
	assert.Panics(t, func() { NewIndexGen(0, 1) })
}
