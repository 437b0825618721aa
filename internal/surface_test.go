package internal

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitDamage(t *testing.T) {
	t.Run("full repaint reports one surface-sized rectangle", func(t *testing.T) {
		regions := []image.Rectangle{
			image.Rect(10, 10, 20, 20),
			image.Rect(100, 0, 150, 40),
		}
		got := commitDamage(true, regions, 800, 600, 2)
		require.Len(t, got, 1)
		assert.Equal(t, image.Rect(0, 0, 800, 600), got[0])
	})

	t.Run("partial damage passes regions through at scale one", func(t *testing.T) {
		regions := []image.Rectangle{
			image.Rect(10, 20, 30, 40),
			image.Rect(0, 0, 5, 5),
		}
		got := commitDamage(false, regions, 800, 600, 1)
		assert.Equal(t, regions, got)
	})

	t.Run("partial damage converts buffer pixels to logical", func(t *testing.T) {
		got := commitDamage(false, []image.Rectangle{image.Rect(3, 3, 7, 7)}, 400, 300, 2)
		require.Len(t, got, 1)
		assert.Equal(t, image.Rect(1, 1, 4, 4), got[0])
	})

	t.Run("no dirty regions means no damage", func(t *testing.T) {
		got := commitDamage(false, nil, 800, 600, 1)
		assert.Empty(t, got)
	})
}

func TestScaleDown(t *testing.T) {
	tests := []struct {
		name  string
		in    image.Rectangle
		scale int
		want  image.Rectangle
	}{
		{"scale one is identity", image.Rect(3, 5, 10, 11), 1, image.Rect(3, 5, 10, 11)},
		{"even bounds halve exactly", image.Rect(2, 4, 10, 20), 2, image.Rect(1, 2, 5, 10)},
		{"odd max rounds outward", image.Rect(0, 0, 801, 601), 2, image.Rect(0, 0, 401, 301)},
		{"odd min rounds toward origin", image.Rect(3, 5, 10, 11), 2, image.Rect(1, 2, 5, 6)},
		{"small rect stays non-empty", image.Rect(7, 7, 8, 8), 4, image.Rect(1, 1, 2, 2)},
		{"scale three", image.Rect(2, 2, 10, 10), 3, image.Rect(0, 0, 4, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scaleDown(tt.in, tt.scale)
			assert.Equal(t, tt.want, got)
			if !tt.in.Empty() {
				assert.False(t, got.Empty(), "covering damage must not collapse")
			}
		})
	}
}
