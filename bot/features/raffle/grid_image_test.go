package raffle

import (
	"bytes"
	"image/png"
	"testing"

	"rifa/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageStates(start, end int) []entities.NumberState {
	states := make([]entities.NumberState, 0, end-start+1)
	for n := start; n <= end; n++ {
		status := entities.NumberStatusAvailable
		switch n % 7 {
		case 0:
			status = entities.NumberStatusPurchased
		case 3:
			status = entities.NumberStatusSelected
		}
		states = append(states, entities.NumberState{Number: n, Status: status})
	}
	return states
}

func TestGridImageGenerator_RenderPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		page  entities.NumberRange
		block entities.NumberRange
	}{
		{
			name:  "full page",
			page:  entities.NumberRange{Index: 0, Start: 1, End: 100},
			block: entities.NumberRange{Index: 1, Start: 26, End: 50},
		},
		{
			name:  "short last page",
			page:  entities.NumberRange{Index: 9, Start: 901, End: 930},
			block: entities.NumberRange{Index: 36, Start: 901, End: 925},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGridImageGenerator()
			states := pageStates(tt.page.Start, tt.page.End)

			data, err := g.RenderPage(states, tt.page, tt.block)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)

			width, height := g.Size(len(states))
			assert.Equal(t, width, img.Bounds().Dx())
			assert.Equal(t, height, img.Bounds().Dy())
		})
	}
}

func TestGridImageGenerator_Size(t *testing.T) {
	t.Parallel()

	g := NewGridImageGenerator()
	fullW, fullH := g.Size(100)
	shortW, shortH := g.Size(30)

	assert.Equal(t, fullW, shortW)
	assert.Greater(t, fullH, shortH)

	emptyW, emptyH := g.Size(0)
	assert.Equal(t, fullW, emptyW)
	assert.Positive(t, emptyH)
}
