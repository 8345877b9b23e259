package ctdf

import (
	"fmt"
	"strings"
)

const TrainIDFormat = "%s#%s#%s#%s"

// TrainLocation is the normalised position of one running train at capture time.
// Field names are the columns of the delivery stream and must not change.
type TrainLocation struct {
	TrainID                      string `json:"train_id"`
	CurrentTimestamp             string `json:"current_timestamp"`
	PredictionGeneratedTimestamp string `json:"prediction_generated_timestamp"`
	DestinationStation           string `json:"destination_station"`
	NextStation                  string `json:"next_station"`
	NextStationArrivalTime       string `json:"next_station_arrival_time"`
	IsApproachingStation         string `json:"is_approaching_station"`
	IsTrainDelayed               string `json:"is_train_delayed"`
}

func NewTrainID(serviceDate string, lineName string, runNumber string, direction string) string {
	return fmt.Sprintf(TrainIDFormat, serviceDate, lineName, runNumber, direction)
}

type TrainIDParts struct {
	ServiceDate string
	LineName    string
	RunNumber   string
	Direction   string
}

func ParseTrainID(trainID string) (TrainIDParts, error) {
	parts := strings.Split(trainID, "#")
	if len(parts) != 4 {
		return TrainIDParts{}, fmt.Errorf("malformed train id %q", trainID)
	}

	return TrainIDParts{
		ServiceDate: parts[0],
		LineName:    parts[1],
		RunNumber:   parts[2],
		Direction:   parts[3],
	}, nil
}
