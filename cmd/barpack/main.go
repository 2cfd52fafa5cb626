package main

import (
	"encoding/binary"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/mhornak/meridian/pkg/datasource/historical"
)

// barpack converts bar CSV exports into the packed binary format the
// historical data source memory-maps. Expected columns:
//
//	timestamp,open,high,low,close,volume[,bid,ask]
//
// Rows must already be sorted by timestamp.

func pack(csvPath string, binFile *os.File) (int, error) {
	csvFile, err := os.Open(csvPath) // #nosec G304
	if err != nil {
		return 0, err
	}
	defer func(csvFile *os.File) {
		_ = csvFile.Close()
	}(csvFile)

	reader := csv.NewReader(csvFile)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, err
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		ts, err := time.Parse(time.RFC3339Nano, record[0])
		if err != nil {
			return count, err
		}

		open, _ := strconv.ParseFloat(record[1], 64)
		high, _ := strconv.ParseFloat(record[2], 64)
		low, _ := strconv.ParseFloat(record[3], 64)
		closePrice, _ := strconv.ParseFloat(record[4], 64)
		volume, _ := strconv.ParseFloat(record[5], 64)

		bar := historical.BinaryBar{
			TimeStamp: ts.UnixNano(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		}
		if len(record) >= 8 {
			bar.Bid, _ = strconv.ParseFloat(record[6], 64)
			bar.Ask, _ = strconv.ParseFloat(record[7], 64)
		}

		if err := binary.Write(binFile, binary.LittleEndian, bar); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func packAll(csvPaths []string, binPath string) error {
	binFile, err := os.Create(binPath) // #nosec G304
	if err != nil {
		return err
	}
	defer func(binFile *os.File) {
		_ = binFile.Close()
	}(binFile)

	for _, csvPath := range csvPaths {
		count, err := pack(csvPath, binFile)
		if err != nil {
			_ = os.Remove(binPath)
			return err
		}
		slog.Info("pack finished", "file", csvPath, "bars", count)
	}

	return nil
}

func main() {
	out := flag.String("out", "", "output binary file")
	flag.Parse()

	if *out == "" || flag.NArg() == 0 {
		slog.Error("usage: barpack -out <file.bin> <bars.csv> [bars.csv ...]")
	} else if err := packAll(flag.Args(), *out); err != nil {
		slog.Error("failed to pack", "error", err)
	} else {
		slog.Info("done")
	}
}
