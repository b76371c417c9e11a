package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longwave/internal/types"
)

func reportFor(name string) *types.WeatherReport {
	return &types.WeatherReport{
		Area: types.SeaArea{Name: name, Kind: types.AreaStandard, ID: name},
	}
}

func TestNewReportBufferThresholds(t *testing.T) {
	_, err := NewReportBuffer(5, 5)
	assert.Error(t, err, "min must be strictly below max")

	_, err = NewReportBuffer(0, 5)
	assert.Error(t, err)

	b, err := NewReportBuffer(3, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, b.MaxSize())
	assert.Equal(t, 0, b.Len())
}

func TestBufferFIFO(t *testing.T) {
	b, err := NewReportBuffer(3, 5)
	require.NoError(t, err)

	names := []string{"Viking", "Forties", "Cromarty"}
	for _, n := range names {
		require.NoError(t, b.Enqueue(reportFor(n)))
	}

	for _, want := range names {
		got, ok := b.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.Area.Name)
	}

	_, ok := b.Dequeue()
	assert.False(t, ok, "drained buffer must report empty")
}

func TestBufferBounds(t *testing.T) {
	b, err := NewReportBuffer(3, 5)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Enqueue(reportFor("a")))
	}
	assert.ErrorIs(t, b.Enqueue(reportFor("overflow")), ErrBufferFull)
	assert.Equal(t, 5, b.Len())
}

func TestBufferNeedsFill(t *testing.T) {
	b, err := NewReportBuffer(3, 5)
	require.NoError(t, err)

	assert.True(t, b.NeedsFill())
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Enqueue(reportFor("a")))
	}
	assert.False(t, b.NeedsFill())

	b.Dequeue()
	assert.True(t, b.NeedsFill())
}
