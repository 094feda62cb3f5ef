package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"expenses/internal/session"
)

var exportHeader = []string{"ID", "Date", "Category", "Amount", "Note"}

// ExportCSV writes the session's filtered expenses as CSV.
func (s *TrackerService) ExportCSV(ctx context.Context, sess session.Session, w io.Writer) error {
	expenses, err := s.ListExpenses(ctx, sess)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			e.Category,
			e.Amount.String(),
			e.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names the export file after the user and filter range.
func ExportFilename(sess session.Session) string {
	return fmt.Sprintf("%s_expenses_%s_to_%s.csv", sess.Username, sess.Filter.Start, sess.Filter.End)
}
