package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type trackpointParquetRow struct {
	ActID        string   `parquet:"name=act_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TSUTCISO     string   `parquet:"name=ts_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8"`
	Time         float64  `parquet:"name=time, type=DOUBLE"`
	Distance     float64  `parquet:"name=distance, type=DOUBLE"`
	HR           int32    `parquet:"name=hr, type=INT32"`
	Speed        float64  `parquet:"name=speed, type=DOUBLE"`
	Cadence      int32    `parquet:"name=cadence, type=INT32"`
	Latitude     *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude    *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Altitude     *float64 `parquet:"name=altitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Pace         *float64 `parquet:"name=pace, type=DOUBLE, repetitiontype=OPTIONAL"`
	Type         string   `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SegmentIndex int32    `parquet:"name=segment_index, type=INT32"`
}

type intervalParquetRow struct {
	ActID      string  `parquet:"name=act_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Type       string  `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StartIndex int32   `parquet:"name=start_index, type=INT32"`
	StopIndex  int32   `parquet:"name=stop_index, type=INT32"`
	StartTime  float64 `parquet:"name=start_time, type=DOUBLE"`
	StopTime   float64 `parquet:"name=stop_time, type=DOUBLE"`
	StartDist  float64 `parquet:"name=start_dist, type=DOUBLE"`
	StopDist   float64 `parquet:"name=stop_dist, type=DOUBLE"`
	DHR        int32   `parquet:"name=dhr, type=INT32"`
	Duration   float64 `parquet:"name=duration, type=DOUBLE"`
	Distance   float64 `parquet:"name=distance, type=DOUBLE"`
	HRRate     float64 `parquet:"name=hrrate, type=DOUBLE"`
}

func trackpointParquetRows(rows []TrackpointRow) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, trackpointParquetRow{
			ActID:        r.ActID,
			TSUTCISO:     r.TSUTCISO,
			Time:         r.Time,
			Distance:     r.Distance,
			HR:           int32(r.HR),
			Speed:        r.Speed,
			Cadence:      int32(r.Cadence),
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			Altitude:     r.Altitude,
			Pace:         r.Pace,
			Type:         r.SegmentKind,
			SegmentIndex: int32(r.SegmentIndex),
		})
	}
	return out
}

func intervalParquetRows(rows []IntervalRow) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, intervalParquetRow{
			ActID:      r.ActID,
			Type:       r.Type,
			StartIndex: int32(r.StartIndex),
			StopIndex:  int32(r.StopIndex),
			StartTime:  r.StartTime,
			StopTime:   r.StopTime,
			StartDist:  r.StartDist,
			StopDist:   r.StopDist,
			DHR:        int32(r.DHR),
			Duration:   r.Duration,
			Distance:   r.Distance,
			HRRate:     r.HRRate,
		})
	}
	return out
}

func writeTrackpointsParquet(path string, rows []TrackpointRow) error {
	return writeParquetFile(path, new(trackpointParquetRow), trackpointParquetRows(rows))
}

func writeIntervalsParquet(path string, rows []IntervalRow) error {
	return writeParquetFile(path, new(intervalParquetRow), intervalParquetRows(rows))
}

func marshalTrackpointsParquet(rows []TrackpointRow) ([]byte, error) {
	return marshalParquet(new(trackpointParquetRow), trackpointParquetRows(rows))
}

func marshalIntervalsParquet(rows []IntervalRow) ([]byte, error) {
	return marshalParquet(new(intervalParquetRow), intervalParquetRows(rows))
}

func writeParquetFile(path string, schema any, rows []any) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := writeParquetRows(fw, schema, rows); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func marshalParquet(schema any, rows []any) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeParquetRows(fw, schema, rows); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func writeParquetRows(fw source.ParquetFile, schema any, rows []any) error {
	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}
