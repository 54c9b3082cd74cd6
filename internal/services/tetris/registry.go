package tetris

import (
	"github.com/kamstrup/intmap"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/models/tetris"
)

// CellRegistry はボードに固定されたセルの識別子を発行・解放する描画側のレジストリです。
// ボードは識別子を保存して返すだけで、その意味は解釈しません。
type CellRegistry interface {
	Acquire(typeIndex int) tetris.CellID
	Release(id tetris.CellID)
	TypeOf(id tetris.CellID) (int, bool)
}

// TypeRegistry は識別子からピースタイプへの対応を保持する CellRegistry の標準実装です。
// 描画時はセルの識別子からピースタイプを引き、カタログの色で塗ります。
type TypeRegistry struct {
	next  tetris.CellID
	types *intmap.Map[tetris.CellID, int]
}

// NewTypeRegistry は空のレジストリを作成します。
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types: intmap.New[tetris.CellID, int](256),
	}
}

// Acquire は新しい識別子を発行します。NoCell は発行しません。
func (r *TypeRegistry) Acquire(typeIndex int) tetris.CellID {
	r.next++
	r.types.Put(r.next, typeIndex)
	return r.next
}

// Release は識別子を解放します。未知の識別子は無視します。
func (r *TypeRegistry) Release(id tetris.CellID) {
	r.types.Del(id)
}

// TypeOf は識別子に対応するピースタイプを返します。
func (r *TypeRegistry) TypeOf(id tetris.CellID) (int, bool) {
	return r.types.Get(id)
}

// Live は解放されていない識別子の数を返します。
func (r *TypeRegistry) Live() int {
	return r.types.Len()
}
