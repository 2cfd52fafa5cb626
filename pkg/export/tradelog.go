package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mhornak/meridian/pkg/common"
	"github.com/mhornak/meridian/pkg/utility/fixed"
)

var header = []string{
	"trade_id", "order_id", "signal_id", "timestamp", "symbol", "side",
	"price", "size", "commission", "slippage", "realized_pnl", "note",
}

// WriteTradeLog writes one row per fill, in the order given. Callers pass
// fills in chronological order; the writer does not reorder.
func WriteTradeLog(w io.Writer, fills []common.Fill) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("unable to write trade log header: %w", err)
	}

	for _, fill := range fills {
		record := []string{
			strconv.FormatInt(fill.TradeId, 10),
			strconv.FormatInt(fill.OrderId, 10),
			strconv.FormatInt(fill.SignalId, 10),
			fill.TimeStamp.UTC().Format(time.RFC3339Nano),
			fill.Symbol,
			fill.Side.String(),
			fill.Price.String(),
			fill.Size.String(),
			fill.Commission.String(),
			fill.Slippage.String(),
			fill.RealizedPnL.String(),
			fill.Note,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("unable to write trade log row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func WriteTradeLogFile(path string, fills []common.Fill) error {
	file, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("unable to create trade log %q: %w", path, err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	return WriteTradeLog(file, fills)
}

// ReadTradeLog reconstructs fills from a trade log, preserving row order.
func ReadTradeLog(r io.Reader) ([]common.Fill, error) {
	reader := csv.NewReader(r)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read trade log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	fills := make([]common.Fill, 0, len(records)-1)
	for idx, record := range records[1:] {
		fill, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("trade log row %d: %w", idx+1, err)
		}
		fills = append(fills, fill)
	}
	return fills, nil
}

func parseRecord(record []string) (common.Fill, error) {
	var fill common.Fill

	if len(record) != len(header) {
		return fill, fmt.Errorf("expected %d columns, got %d", len(header), len(record))
	}

	var err error
	if fill.TradeId, err = strconv.ParseInt(record[0], 10, 64); err != nil {
		return fill, fmt.Errorf("trade_id: %w", err)
	}
	if fill.OrderId, err = strconv.ParseInt(record[1], 10, 64); err != nil {
		return fill, fmt.Errorf("order_id: %w", err)
	}
	if fill.SignalId, err = strconv.ParseInt(record[2], 10, 64); err != nil {
		return fill, fmt.Errorf("signal_id: %w", err)
	}
	if fill.TimeStamp, err = time.Parse(time.RFC3339Nano, record[3]); err != nil {
		return fill, fmt.Errorf("timestamp: %w", err)
	}
	fill.Symbol = record[4]
	if fill.Side, err = common.ParseOrderSide(record[5]); err != nil {
		return fill, err
	}
	if fill.Price, err = fixed.FromString(record[6]); err != nil {
		return fill, fmt.Errorf("price: %w", err)
	}
	if fill.Size, err = fixed.FromString(record[7]); err != nil {
		return fill, fmt.Errorf("size: %w", err)
	}
	if fill.Commission, err = fixed.FromString(record[8]); err != nil {
		return fill, fmt.Errorf("commission: %w", err)
	}
	if fill.Slippage, err = fixed.FromString(record[9]); err != nil {
		return fill, fmt.Errorf("slippage: %w", err)
	}
	if fill.RealizedPnL, err = fixed.FromString(record[10]); err != nil {
		return fill, fmt.Errorf("realized_pnl: %w", err)
	}
	fill.Note = record[11]

	return fill, nil
}
