package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger that appends JSON-encoded entries to path. A
// non-empty direction tags every line with a "[direction] " prefix
// ahead of the JSON payload, letting a trace of both sides of a
// connection share one log file while staying greppable by direction.
func New(path, direction string) (*zap.Logger, *ReopenableWriter, error) {
	rw, err := NewReopenableWriter(path)
	if err != nil {
		return nil, nil, err
	}

	var sink zapcore.WriteSyncer = rw
	if direction != "" {
		sink = NewLinePrefixWriter(rw, "["+direction+"] ")
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, zapcore.DebugLevel)

	return zap.New(core), rw, nil
}
