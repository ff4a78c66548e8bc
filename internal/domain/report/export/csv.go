package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes one line per unit using the unit's csv tags.
func WriteCSV(w io.Writer, doc Document) error {
	units := doc.Report.Units
	if err := gocsv.Marshal(&units, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
