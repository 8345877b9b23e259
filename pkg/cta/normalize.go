package cta

import (
	"time"

	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"github.com/travigo/cta-train-analytics/pkg/util"
)

// Normalize shapes the trains of the first route into delivery records.
// capturedAt should already be in the agency time zone, it decides both the
// service date inside train_id and the current_timestamp column.
//
// A response without a route is an error. A route with no trains is a valid
// state and returns no records.
func Normalize(positions *PositionsResponse, line ctdf.TrainLine, capturedAt time.Time) ([]ctdf.TrainLocation, error) {
	if positions == nil || len(positions.CTATT.Routes) == 0 {
		if positions != nil && positions.CTATT.ErrorCode != "" && positions.CTATT.ErrorCode != "0" {
			return nil, &UpstreamError{
				Code:    positions.CTATT.ErrorCode,
				Message: positions.CTATT.ErrorMessage,
				Err:     ErrMissingRoute,
			}
		}

		return nil, ErrMissingRoute
	}

	trains := positions.CTATT.Routes[0].Trains
	if len(trains) == 0 {
		return nil, nil
	}

	serviceDate := util.ServiceDate(capturedAt)
	currentTimestamp := util.ISOFormat(capturedAt)

	locations := make([]ctdf.TrainLocation, 0, len(trains))
	for _, train := range trains {
		locations = append(locations, ctdf.TrainLocation{
			TrainID:                      ctdf.NewTrainID(serviceDate, line.Name, train.RunNumber, train.Direction),
			CurrentTimestamp:             currentTimestamp,
			PredictionGeneratedTimestamp: train.PredictionGeneratedTime,
			DestinationStation:           train.DestinationName,
			NextStation:                  train.NextStationName,
			NextStationArrivalTime:       train.ArrivalTime,
			IsApproachingStation:         train.IsApproaching,
			IsTrainDelayed:               train.IsDelayed,
		})
	}

	return locations, nil
}
