package logger

import (
	"time"

	"go.uber.org/zap"
)

// HTTP

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Route(v string) zap.Field     { return zap.String("route", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

func DurationMs(v time.Duration) zap.Field {
	return zap.Int64("duration_ms", v.Milliseconds())
}

// Flow

// Domain is the remote instance a request targets.
func Domain(v string) zap.Field { return zap.String("instance", v) }

// Op is the broker operation.
func Op(v string) zap.Field { return zap.String("op", v) }

// Stage is the flow stage reconstructed from cookies.
func Stage(v string) zap.Field { return zap.String("stage", v) }

// Kind is the error kind reported to the user.
func Kind(v string) zap.Field { return zap.String("kind", v) }

// ClientID identifies a registered application. Client ids are not secret; client secrets are.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }
func Count(v int) zap.Field     { return zap.Int("count", v) }
func Err(err error) zap.Field   { return zap.Error(err) }

// Generic

func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
