package feeds

import (
	"encoding/json"
	"fmt"

	"unionfeed/registry"
)

// Row is one row of the combined query
type Row struct {
	ID       int64
	Tag      string
	TypeName string
}

// Item is a fully loaded record together with the tag of the source that
// produced it and its type name. The record itself is left untouched, so the
// same record can appear under several tags.
type Item struct {
	Record   registry.Record
	Tag      string
	TypeName string

	tagField  string
	typeField string
}

// MarshalJSON encodes the record's fields with the tag and type name added
// under the aggregator's reserved field names. A record field with the same
// name is overwritten.
func (i Item) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(i.Record)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("record %s must encode as a JSON object: %w", i.TypeName, err)
	}

	tagField, typeField := i.tagField, i.typeField
	if tagField == "" {
		tagField = DefaultTagColumn
	}
	if typeField == "" {
		typeField = DefaultTypeColumn
	}

	if fields[tagField], err = json.Marshal(i.Tag); err != nil {
		return nil, err
	}
	if fields[typeField], err = json.Marshal(i.TypeName); err != nil {
		return nil, err
	}

	return json.Marshal(fields)
}
