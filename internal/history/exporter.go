package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// ParquetSwitchRecord is the parquet schema of an exported switch record.
// Timestamps are Unix milliseconds.
type ParquetSwitchRecord struct {
	ID          int64    `parquet:"id"`
	ProfileID   string   `parquet:"profile_id"`
	State       string   `parquet:"state"`
	StartedAt   int64    `parquet:"started_at"`
	FinishedAt  int64    `parquet:"finished_at"`
	DurationMS  int64    `parquet:"duration_ms"`
	Transitions []string `parquet:"transitions,list"`
	Error       *string  `parquet:"error,optional"`
}

func toParquet(r SwitchRecord) ParquetSwitchRecord {
	out := ParquetSwitchRecord{
		ID:          r.ID,
		ProfileID:   r.ProfileID,
		State:       r.State,
		StartedAt:   r.StartedAt.UnixMilli(),
		FinishedAt:  r.FinishedAt.UnixMilli(),
		DurationMS:  r.DurationMS,
		Transitions: r.Transitions,
	}
	if r.Error != "" {
		msg := r.Error
		out.Error = &msg
	}
	return out
}

// ToSwitchRecord converts an exported row back to a SwitchRecord.
func (p ParquetSwitchRecord) ToSwitchRecord() SwitchRecord {
	r := SwitchRecord{
		ID:          p.ID,
		ProfileID:   p.ProfileID,
		State:       p.State,
		StartedAt:   time.UnixMilli(p.StartedAt),
		FinishedAt:  time.UnixMilli(p.FinishedAt),
		DurationMS:  p.DurationMS,
		Transitions: p.Transitions,
	}
	if p.Error != nil {
		r.Error = *p.Error
	}
	return r
}

// Exporter writes switch records to parquet files.
type Exporter struct {
	codec  string
	files  *common.FileManager
	logger zerolog.Logger
}

// NewExporter creates an exporter using codec ("zstd", "snappy", "gzip" or "none").
func NewExporter(codec string, logger zerolog.Logger) *Exporter {
	logger = logger.With().Str("component", "HistoryExporter").Logger()
	return &Exporter{
		codec:  strings.ToLower(codec),
		files:  common.NewFileManager(logger),
		logger: logger,
	}
}

func (e *Exporter) compressionOption() parquet.WriterOption {
	switch e.codec {
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "none":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

// Export writes records to path, replacing any existing file.
func (e *Exporter) Export(path string, records []SwitchRecord) error {
	if err := e.files.EnsureDirectory(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return common.NewIOError("create", tempPath, err)
	}

	rows := make([]ParquetSwitchRecord, len(records))
	for i, r := range records {
		rows[i] = toParquet(r)
	}

	if err := e.writeRows(file, rows); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing parquet data to '%s': %w", path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return common.NewIOError("close", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return common.NewIOError("rename", path, err)
	}

	e.logger.Info().Str("path", path).Int("records", len(rows)).Str("codec", e.codec).Msg("Exported switch history")
	return nil
}

func (e *Exporter) writeRows(file *os.File, rows []ParquetSwitchRecord) error {
	writer := parquet.NewGenericWriter[ParquetSwitchRecord](file, e.compressionOption())
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			_ = writer.Close()
			return err
		}
	}
	return writer.Close()
}

// Load reads every record from a parquet file written by Export.
func (e *Exporter) Load(path string) ([]SwitchRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, common.NewIOError("open", path, err)
	}
	defer file.Close()

	reader := parquet.NewGenericReader[ParquetSwitchRecord](file)
	defer reader.Close()

	rows := make([]ParquetSwitchRecord, reader.NumRows())
	total := 0
	for total < len(rows) {
		n, err := reader.Read(rows[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading parquet data from '%s': %w", path, err)
		}
		if n == 0 {
			break
		}
	}

	records := make([]SwitchRecord, 0, total)
	for _, row := range rows[:total] {
		records = append(records, row.ToSwitchRecord())
	}
	return records, nil
}
