package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"netpulse/internal/models"
)

// CSVFilename is the suggested download name of the export.
const CSVFilename = "netpulse_logs.csv"

var csvHeader = []string{"Timestamp", "IP", "Status", "Latency"}

// WriteCSV writes every measurement as a Timestamp,IP,Status,Latency row.
func WriteCSV(w io.Writer, measurements []models.Measurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range measurements {
		rec := ToRecord(m)
		if err := cw.Write([]string{rec.Timestamp, rec.IP, rec.Status, rec.Latency}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
