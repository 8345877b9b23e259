package cta

import (
	"bytes"
	"encoding/json"
)

// PositionsResponse is the body of the ttpositions endpoint
type PositionsResponse struct {
	CTATT PositionsEnvelope `json:"ctatt"`
}

type PositionsEnvelope struct {
	Timestamp    string  `json:"tmst"`
	ErrorCode    string  `json:"errCd"`
	ErrorMessage string  `json:"errNm"`
	Routes       []Route `json:"route"`
}

type Route struct {
	Name   string `json:"@name"`
	Trains Trains `json:"train"`
}

// Train is one vehicle on a route. Every value arrives as a string.
type Train struct {
	RunNumber               string `json:"rn"`
	DestinationStopID       string `json:"destSt"`
	DestinationName         string `json:"destNm"`
	Direction               string `json:"trDr"`
	NextStationID           string `json:"nextStaId"`
	NextStopID              string `json:"nextStpId"`
	NextStationName         string `json:"nextStaNm"`
	PredictionGeneratedTime string `json:"prdt"`
	ArrivalTime             string `json:"arrT"`
	IsApproaching           string `json:"isApp"`
	IsDelayed               string `json:"isDly"`
	Flags                   string `json:"flags"`
	Latitude                string `json:"lat"`
	Longitude               string `json:"lon"`
	Heading                 string `json:"heading"`
}

// Trains accepts both the list form and the bare object the API sends when a single train is running
type Trains []Train

func (t *Trains) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*t = nil
		return nil
	case trimmed[0] == '{':
		var train Train
		if err := json.Unmarshal(trimmed, &train); err != nil {
			return err
		}
		*t = Trains{train}
		return nil
	}

	var trains []Train
	if err := json.Unmarshal(trimmed, &trains); err != nil {
		return err
	}
	*t = trains

	return nil
}
