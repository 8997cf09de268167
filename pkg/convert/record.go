package convert

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Record is an ordered mapping from result field name to converted value.
// Field order matches the RETURN clause of the query that produced it.
type Record struct {
	keys   []string
	values map[string]any
}

// Keys returns the field names in query order.
func (r Record) Keys() []string {
	return r.keys
}

// Get returns the converted value for a field name.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// AsMap returns the record as a plain map. The map is shared, not copied.
func (r Record) AsMap() map[string]any {
	return r.values
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.keys)
}

// FromRecord converts a native driver record. Conversion is atomic: any
// unconvertible value fails the whole record.
func FromRecord(rec *neo4j.Record) (Record, error) {
	out := Record{
		keys:   rec.Keys,
		values: make(map[string]any, len(rec.Keys)),
	}
	for i, key := range rec.Keys {
		converted, err := nativeValue(key, rec.Values[i])
		if err != nil {
			return Record{}, err
		}
		out.values[key] = converted
	}
	return out, nil
}

// FromRecords converts a fully collected result. A failure on any record
// aborts the sequence; no partial result is returned.
func FromRecords(recs []*neo4j.Record) ([]Record, error) {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		converted, err := FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

// FromRows converts a columnar result as produced by the embedded engine.
// The same conversion table applies as for driver records.
func FromRows(columns []string, rows [][]any) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			keys:   columns,
			values: make(map[string]any, len(columns)),
		}
		for i, key := range columns {
			if i >= len(row) {
				rec.values[key] = nil
				continue
			}
			converted, err := nativeValue(key, row[i])
			if err != nil {
				return nil, err
			}
			rec.values[key] = converted
		}
		out = append(out, rec)
	}
	return out, nil
}

// nativeValue converts one native value into its host equivalent. Graph
// entities flatten to property maps plus identity metadata; collections
// convert recursively; temporal and spatial driver types are already plain
// values and pass through. Unknown types are a closed failure.
func nativeValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, string, int64, float64, []byte:
		return v, nil
	case time.Time:
		// Zoned DATETIME values come back from the driver as time.Time.
		return v, nil
	case neo4j.Node:
		return nodeValue(key, v)
	case neo4j.Relationship:
		return relationshipValue(key, v)
	case dbtype.Path:
		return pathValue(key, v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			converted, err := nativeValue(indexKey(key, i), elem)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			converted, err := nativeValue(nestedKey(key, k), elem)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	case dbtype.Date, dbtype.LocalTime, dbtype.Time, dbtype.LocalDateTime,
		dbtype.Duration, dbtype.Point2D, dbtype.Point3D:
		return v, nil
	default:
		return nil, unconvertibleValue(key, value)
	}
}

func nodeValue(key string, n neo4j.Node) (map[string]any, error) {
	props, err := nativeValue(nestedKey(key, "properties"), n.Props)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":         n.Id,
		"elementId":  n.ElementId,
		"labels":     n.Labels,
		"properties": props,
	}, nil
}

func relationshipValue(key string, r neo4j.Relationship) (map[string]any, error) {
	props, err := nativeValue(nestedKey(key, "properties"), r.Props)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":         r.Id,
		"elementId":  r.ElementId,
		"type":       r.Type,
		"startId":    r.StartId,
		"endId":      r.EndId,
		"properties": props,
	}, nil
}

func pathValue(key string, p dbtype.Path) (map[string]any, error) {
	nodes := make([]any, len(p.Nodes))
	for i, n := range p.Nodes {
		converted, err := nodeValue(indexKey(nestedKey(key, "nodes"), i), n)
		if err != nil {
			return nil, err
		}
		nodes[i] = converted
	}
	rels := make([]any, len(p.Relationships))
	for i, r := range p.Relationships {
		converted, err := relationshipValue(indexKey(nestedKey(key, "relationships"), i), r)
		if err != nil {
			return nil, err
		}
		rels[i] = converted
	}
	return map[string]any{
		"nodes":         nodes,
		"relationships": rels,
	}, nil
}
