package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDefaults(t *testing.T) {
	p := Parse("", "", 10)
	assert.Equal(t, Params{Page: 1, Limit: 10}, p)

	p = Parse("abc", "-3", 20)
	assert.Equal(t, Params{Page: 1, Limit: 20}, p)

	p = Parse("4", "500", 10)
	assert.Equal(t, Params{Page: 4, Limit: MaxLimit}, p)
	assert.Equal(t, 300, p.Offset())
}

func TestParseCapsHugePage(t *testing.T) {
	p := Parse("9223372036854775807", "10", 10)
	assert.Equal(t, MaxPage, p.Page)
	assert.Positive(t, p.Offset())
	assert.LessOrEqual(t, p.Offset(), math.MaxInt32)

	m := NewMeta(p, 25)
	assert.False(t, m.HasNext)
	assert.True(t, m.HasPrev)
}

func TestNewMetaTwentyFiveItems(t *testing.T) {
	first := NewMeta(Params{Page: 1, Limit: 10}, 25)
	assert.Equal(t, 3, first.TotalPages)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)

	last := NewMeta(Params{Page: 3, Limit: 10}, 25)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrev)
	assert.Equal(t, int64(25), last.TotalItems)
}

func TestNewMetaExactlyFullLastPage(t *testing.T) {
	m := NewMeta(Params{Page: 2, Limit: 10}, 20)
	assert.Equal(t, 2, m.TotalPages)
	assert.False(t, m.HasNext)

	empty := NewMeta(Params{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
