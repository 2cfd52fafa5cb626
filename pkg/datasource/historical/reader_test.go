package historical

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhornak/meridian/pkg/common"
)

func writeTestBars(t *testing.T, count int, start time.Time) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bars.bin")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, file.Close())
	}()

	for i := 0; i < count; i++ {
		price := 100 + float64(i)
		bar := BinaryBar{
			TimeStamp: start.Add(time.Duration(i) * time.Minute).UnixNano(),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.5,
			Volume:    1000,
		}
		require.NoError(t, binary.Write(file, binary.LittleEndian, bar))
	}
	return path
}

func TestHistoricalSource_EntryCount(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource[BinaryBar](writeTestBars(t, 10, start))
	require.NoError(t, source.Open())
	defer source.Close()

	count, err := source.EntryCount()
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
}

func TestHistoricalSource_ReadPastEnd(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource[BinaryBar](writeTestBars(t, 3, start))
	require.NoError(t, source.Open())
	defer source.Close()

	var entry BinaryBar
	assert.True(t, errors.Is(source.Read(3, &entry), ErrEof))
}

func TestBarReader_StreamsWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource[BinaryBar](writeTestBars(t, 60, start))
	require.NoError(t, source.Open())
	defer source.Close()

	from := start.Add(10 * time.Minute)
	to := start.Add(19 * time.Minute)
	reader := NewBarReader(source, "EURUSD", time.Minute, from, to)

	var count int
	for {
		bar, err := reader.GetNext()
		if errors.Is(err, ErrEof) {
			break
		}
		require.NoError(t, err)

		assert.Equal(t, "EURUSD", bar.Symbol)
		assert.Equal(t, time.Minute, bar.Period)
		assert.False(t, bar.TimeStamp.Before(from))
		assert.False(t, bar.TimeStamp.After(to))
		count++
	}
	assert.Equal(t, 10, count)
}

func TestBarReader_FirstBarFoundByBinarySearch(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource[BinaryBar](writeTestBars(t, 60, start))
	require.NoError(t, source.Open())
	defer source.Close()

	from := start.Add(30 * time.Minute)
	reader := NewBarReader(source, "EURUSD", time.Minute, from, start.Add(time.Hour))

	bar, err := reader.GetNext()
	require.NoError(t, err)
	assert.True(t, bar.TimeStamp.Equal(from))
	assert.Equal(t, "130", bar.Open.String())
}

func TestBarReader_WindowAfterData(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	source := NewSource[BinaryBar](writeTestBars(t, 5, start))
	require.NoError(t, source.Open())
	defer source.Close()

	reader := NewBarReader(source, "EURUSD", time.Minute, start.Add(time.Hour), start.Add(2*time.Hour))

	_, err := reader.GetNext()
	assert.Error(t, err)
}

func TestBinaryBar_ToBar(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	binBar := BinaryBar{
		TimeStamp: at.UnixNano(),
		Open:      1.085,
		High:      1.09,
		Low:       1.08,
		Close:     1.0875,
		Volume:    5000,
		Bid:       1.0874,
		Ask:       1.0876,
	}

	var bar common.Bar
	binBar.ToBar(&bar, time.Minute)

	assert.True(t, bar.TimeStamp.Equal(at))
	assert.Equal(t, time.Minute, bar.Period)
	assert.Equal(t, "1.085", bar.Open.String())
	assert.Equal(t, "1.0875", bar.Close.String())
	assert.True(t, bar.HasQuotes())
}
