// Package observability contains logging setup for the transport tools.
package observability

import (
    "os"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "gopkg.in/natefinch/lumberjack.v2"

    "tierbus/pkg/config"
)

// SetupLogger builds a zap.Logger from the provided configuration, sets it
// as the global logger, and redirects the stdlib log package. The caller
// should defer logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
    level := zap.NewAtomicLevel()
    switch strings.ToLower(c.Level) {
    case "debug":
        level.SetLevel(zap.DebugLevel)
    case "info":
        level.SetLevel(zap.InfoLevel)
    case "warn", "warning":
        level.SetLevel(zap.WarnLevel)
    case "error":
        level.SetLevel(zap.ErrorLevel)
    default:
        level.SetLevel(zap.InfoLevel)
    }

    encCfg := zap.NewProductionEncoderConfig()
    if c.Development {
        encCfg = zap.NewDevelopmentEncoderConfig()
        encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    var encoder zapcore.Encoder
    if strings.ToLower(c.Format) == "json" {
        encoder = zapcore.NewJSONEncoder(encCfg)
    } else {
        encoder = zapcore.NewConsoleEncoder(encCfg)
    }

    var ws zapcore.WriteSyncer
    switch strings.ToLower(c.Output) {
    case "", "stdout":
        ws = zapcore.AddSync(os.Stdout)
    case "stderr":
        ws = zapcore.AddSync(os.Stderr)
    default:
        // File path; rotate only when enabled
        if c.Rotation.Enable {
            ws = zapcore.AddSync(&lumberjack.Logger{
                Filename:   c.Output,
                MaxSize:    orDefault(c.Rotation.MaxSizeMB, 10),
                MaxBackups: orDefault(c.Rotation.MaxBackups, 1),
                MaxAge:     orDefault(c.Rotation.MaxAgeDays, 7),
                Compress:   c.Rotation.Compress,
            })
        } else {
            if dir := dirOf(c.Output); dir != "" {
                _ = os.MkdirAll(dir, 0o755)
            }
            f, err := os.OpenFile(c.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
            if err != nil {
                ws = zapcore.AddSync(os.Stderr)
            } else {
                ws = zapcore.AddSync(f)
            }
        }
    }

    core := zapcore.NewCore(encoder, ws, level)
    opts := []zap.Option{
        zap.AddCaller(),
        zap.AddStacktrace(zap.ErrorLevel),
    }
    if c.Development {
        opts = append(opts, zap.Development())
    }

    logger := zap.New(core, opts...)
    zap.ReplaceGlobals(logger)
    _, _ = zap.RedirectStdLogAt(logger, zap.InfoLevel)
    return logger, nil
}

func orDefault(v, def int) int {
    if v > 0 {
        return v
    }
    return def
}

func dirOf(path string) string {
    i := strings.LastIndexAny(path, "/\\")
    if i <= 0 {
        return ""
    }
    return path[:i]
}
