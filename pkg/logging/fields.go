package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Field helpers for the client domain

func Component(name string) Field {
	return String("component", name)
}

func URI(uri string) Field {
	return String("uri", uri)
}

func SessionID(id string) Field {
	return String("session_id", id)
}

func Query(text string) Field {
	return String("query", text)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Records(n int) Field {
	return Int("records", n)
}

func Port(p int) Field {
	return Int("port", p)
}

func DataDir(dir string) Field {
	return String("data_dir", dir)
}
