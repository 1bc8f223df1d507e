package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/berajelin/routia/models"
)

// defaultLimit caps the stops shown in the table; the data itself is never truncated
const defaultLimit = 15

func validFormat(format string) bool {
	switch format {
	case "table", "json", "csv":
		return true
	}
	return false
}

func render(w io.Writer, result *models.PredictionResult, format string, limit int) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "csv":
		return renderCSV(w, result)
	default:
		return renderTable(w, result, limit)
	}
}

func renderTable(w io.Writer, result *models.PredictionResult, limit int) error {
	fmt.Fprintf(w, "%s  %s\n", result.Line, result.LineName)
	fmt.Fprintf(w, "%s %s-%s  |  %s\n\n", result.Date, result.TimeStart, result.TimeEnd, result.DataSource)

	stops := result.Stops
	if limit > 0 && len(stops) > limit {
		stops = stops[:limit]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tStop\tDemand\tLevel\tvs last year\t")
	for i, s := range stops {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%+.1f%%\t\n", i+1, s.Name, s.PredictedDemand, s.Level, s.VariationPercent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(stops) < len(result.Stops) {
		fmt.Fprintf(w, "... %d more stops not shown\n", len(result.Stops)-len(stops))
	}

	fmt.Fprintf(w, "\nTotal riders: %d over %d stops (High %d, Medium %d, Low %d)\n",
		result.TotalRiders, len(result.Stops),
		result.CountByLevel(models.DemandHigh),
		result.CountByLevel(models.DemandMedium),
		result.CountByLevel(models.DemandLow))
	_, err := fmt.Fprintf(w, "Model accuracy: %.2f%%\n", result.ModelAccuracyPercent)
	return err
}

func renderCSV(w io.Writer, result *models.PredictionResult) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"stopId", "name", "latitude", "longitude", "predictedDemand", "level", "variationPercent"})
	for _, s := range result.Stops {
		cw.Write([]string{
			s.StopID,
			s.Name,
			strconv.FormatFloat(s.Latitude, 'f', -1, 64),
			strconv.FormatFloat(s.Longitude, 'f', -1, 64),
			strconv.Itoa(s.PredictedDemand),
			string(s.Level),
			strconv.FormatFloat(s.VariationPercent, 'f', 1, 64),
		})
	}
	cw.Flush()
	return cw.Error()
}
