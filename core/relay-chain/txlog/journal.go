// Package txlog writes a JSON-lines journal of executed transactions.
package txlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	StatusSuccess  = "success"
	StatusReverted = "reverted"
)

// Entry is one journal line.
type Entry struct {
	TxHash      string
	BlockHeight uint64
	Timestamp   time.Time

	Operation string
	From      string
	To        string
	Nonce     uint64

	Status       string
	ErrorMessage string
	GasUsed      uint64
	LogCount     int

	// Events holds the emitted log names in order.
	Events           []string
	Metadata         map[string]interface{}
	ProcessingTimeMs int64
}

// Config controls rotation of the journal file.
type Config struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Journal appends entries through a zap JSON encoder into a rotated file.
type Journal struct {
	logger  *zap.Logger
	rotator *lumberjack.Logger
	path    string
	written uint64
	mu      sync.Mutex
}

func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 100
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "logged_at"
	encoderCfg.MessageKey = "event"
	encoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), zapcore.DebugLevel)
	return &Journal{
		logger:  zap.New(core),
		rotator: rotator,
		path:    cfg.Path,
	}, nil
}

// Record writes entry. Reverted transactions are written at warn level.
func (j *Journal) Record(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	fields := []zap.Field{
		zap.String("entry_id", uuid.NewString()),
		zap.String("tx_hash", entry.TxHash),
		zap.Uint64("block_height", entry.BlockHeight),
		zap.Time("timestamp", entry.Timestamp),
		zap.String("operation", entry.Operation),
		zap.String("from", entry.From),
		zap.Uint64("nonce", entry.Nonce),
		zap.String("status", entry.Status),
		zap.Uint64("gas_used", entry.GasUsed),
		zap.Int("log_count", entry.LogCount),
		zap.Int64("processing_time_ms", entry.ProcessingTimeMs),
	}
	if entry.To != "" {
		fields = append(fields, zap.String("to", entry.To))
	}
	if entry.ErrorMessage != "" {
		fields = append(fields, zap.String("error_message", entry.ErrorMessage))
	}
	if len(entry.Events) > 0 {
		fields = append(fields, zap.Strings("events", entry.Events))
	}
	if len(entry.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", entry.Metadata))
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Status == StatusReverted {
		j.logger.Warn("transaction", fields...)
	} else {
		j.logger.Info("transaction", fields...)
	}
	j.written++
}

// Written is the number of entries recorded since the journal was opened.
func (j *Journal) Written() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written
}

func (j *Journal) Path() string {
	return j.path
}

// Close flushes the encoder and releases the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_ = j.logger.Sync()
	return j.rotator.Close()
}
