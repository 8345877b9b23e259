package ingest

import (
	"encoding/json"
	"fmt"
)

// Unit is one record serialised for the sink, JSON terminated by a newline
type Unit struct {
	Data []byte
}

func NewUnit(record any) (Unit, error) {
	encoded, err := json.Marshal(record)
	if err != nil {
		return Unit{}, fmt.Errorf("encode ingest unit: %w", err)
	}

	return Unit{Data: append(encoded, '\n')}, nil
}

func NewUnits[T any](records []T) ([]Unit, error) {
	units := make([]Unit, 0, len(records))

	for _, record := range records {
		unit, err := NewUnit(record)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}

	return units, nil
}
