package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is a strongly typed log field.
type Field = zap.Field

// String constructs a string field.
func String(key, value string) Field {
	return zap.String(key, value)
}

// Strings constructs a []string field.
func Strings(key string, values []string) Field {
	return zap.Strings(key, values)
}

// Int constructs an int field.
func Int(key string, value int) Field {
	return zap.Int(key, value)
}

// Int64 constructs an int64 field.
func Int64(key string, value int64) Field {
	return zap.Int64(key, value)
}

// Bool constructs a bool field.
func Bool(key string, value bool) Field {
	return zap.Bool(key, value)
}

// Float constructs a float64 field.
func Float(key string, value float64) Field {
	return zap.Float64(key, value)
}

// Duration constructs a duration field.
func Duration(key string, value time.Duration) Field {
	return zap.Duration(key, value)
}

// Time constructs a time field.
func Time(key string, value time.Time) Field {
	return zap.Time(key, value)
}

// Any constructs a field with an arbitrary value.
func Any(key string, value any) Field {
	return zap.Any(key, value)
}

// Cause attaches the causing error to the log entry.
func Cause(err error) Field {
	return zap.NamedError("cause", err)
}
