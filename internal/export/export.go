// Package export writes mapping results as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/mapper"
)

// Columns is the fixed output column order.
var Columns = []string{
	"ThreatId", "ThreatTitle", "Threat_Description", "Source", "Src", "Tgt",
	"TraceableRIDs", "MappedRIDs", "StrayRIDs", "Status", "MissingIEC",
}

// WriteCSV writes one row per result, in result order. Identifier lists are
// "; "-joined sorted strings.
func WriteCSV(w io.Writer, results []mapper.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		rec := []string{
			r.ThreatID,
			r.ThreatTitle,
			r.Description,
			r.Source,
			r.Src,
			r.Tgt,
			strings.Join(r.Traceable, "; "),
			strings.Join(r.Mapped, "; "),
			strings.Join(r.Stray, "; "),
			string(r.Status),
			strings.Join(r.Missing, "; "),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row for threat %s: %w", r.ThreatID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the results to path, creating or truncating it.
func WriteCSVFile(path string, results []mapper.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
