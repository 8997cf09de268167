// Package convert maps between the graph driver's native value types and
// plain Go data structures. The supported set of kinds is closed: anything
// outside the enumerated mapping fails, it is never silently passed along.
package convert

import (
	"math"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Parameters normalizes a caller-supplied parameter map into the generic
// form accepted by the driver and the embedded engine. Values are converted
// recursively; an unsupported kind anywhere in the tree rejects the whole
// map before it reaches any backend.
func Parameters(params map[string]any) (map[string]any, error) {
	if params == nil {
		return nil, nil
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		converted, err := parameterValue(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

// parameterValue converts a single host value. key carries the dotted path
// for error reporting only.
func parameterValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, string, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, parameterOverflow(key, v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, parameterOverflow(key, v)
		}
		return int64(v), nil
	case float32:
		return float64(v), nil
	case []byte:
		return v, nil
	case time.Time:
		return v, nil
	case time.Duration:
		// The wire duration type carries month/day/second components; a Go
		// duration is pure elapsed time, so months and days stay zero.
		return dbtype.Duration{
			Seconds: int64(v / time.Second),
			Nanos:   int(v % time.Second),
		}, nil
	case dbtype.Date, dbtype.LocalTime, dbtype.Time, dbtype.LocalDateTime,
		dbtype.Duration, dbtype.Point2D, dbtype.Point3D:
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			converted, err := parameterValue(indexKey(key, i), elem)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = int64(n)
		}
		return out, nil
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out, nil
	case []bool:
		out := make([]any, len(v))
		for i, b := range v {
			out[i] = b
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			converted, err := parameterValue(nestedKey(key, k), elem)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	default:
		return nil, unsupportedParameter(key, value)
	}
}

func nestedKey(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func indexKey(parent string, i int) string {
	return nestedKey(parent, strconv.Itoa(i))
}
