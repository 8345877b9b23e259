package archiver

import (
	"bytes"

	"github.com/travigo/cta-train-analytics/pkg/ctdf"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// ArchivedLocation is one Parquet row: the delivered location plus the
// columns derived from its train_id
type ArchivedLocation struct {
	TrainID                      string `parquet:"name=train_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	CurrentTimestamp             string `parquet:"name=current_timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
	PredictionGeneratedTimestamp string `parquet:"name=prediction_generated_timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
	DestinationStation           string `parquet:"name=destination_station, type=BYTE_ARRAY, convertedtype=UTF8"`
	NextStation                  string `parquet:"name=next_station, type=BYTE_ARRAY, convertedtype=UTF8"`
	NextStationArrivalTime       string `parquet:"name=next_station_arrival_time, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsApproachingStation         string `parquet:"name=is_approaching_station, type=BYTE_ARRAY, convertedtype=UTF8"`
	IsTrainDelayed               string `parquet:"name=is_train_delayed, type=BYTE_ARRAY, convertedtype=UTF8"`
	ServiceDate                  string `parquet:"name=service_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	TrainLine                    string `parquet:"name=train_line, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func NewArchivedLocation(location ctdf.TrainLocation) (ArchivedLocation, error) {
	parts, err := ctdf.ParseTrainID(location.TrainID)
	if err != nil {
		return ArchivedLocation{}, err
	}

	return ArchivedLocation{
		TrainID:                      location.TrainID,
		CurrentTimestamp:             location.CurrentTimestamp,
		PredictionGeneratedTimestamp: location.PredictionGeneratedTimestamp,
		DestinationStation:           location.DestinationStation,
		NextStation:                  location.NextStation,
		NextStationArrivalTime:       location.NextStationArrivalTime,
		IsApproachingStation:         location.IsApproachingStation,
		IsTrainDelayed:               location.IsTrainDelayed,
		ServiceDate:                  parts.ServiceDate,
		TrainLine:                    parts.LineName,
	}, nil
}

func (l ArchivedLocation) partitionValue(column string) string {
	if column == PartitionTrainLine {
		return l.TrainLine
	}
	return l.ServiceDate
}

// EncodeParquet writes the rows as a single Snappy compressed Parquet file
func EncodeParquet(rows []ArchivedLocation) ([]byte, error) {
	buf := &bytes.Buffer{}
	file := writerfile.NewWriterFile(buf)

	pw, err := writer.NewParquetWriter(file, new(ArchivedLocation), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			file.Close()
			return nil, err
		}
	}

	if err := pw.WriteStop(); err != nil {
		file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
