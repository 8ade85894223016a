package result

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"tasklist/internal/service"
	"tasklist/internal/store"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Exporter struct{ st *store.Store }

func NewExporter(st *store.Store) *Exporter { return &Exporter{st: st} }

// ContentType returns the MIME type served for an export format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "text/csv"
	case "pdf":
		return "application/pdf"
	default:
		return "application/json"
	}
}

func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	all, err := e.st.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return Render(all, format)
}

// Render formats tasks as json, csv or pdf.
func Render(all []service.Task, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(map[string][]service.Task{"tasks": all}, "", "  ")
	case "csv":
		var b bytes.Buffer
		w := csv.NewWriter(&b)
		_ = w.Write([]string{"id", "description", "completed"})
		for _, t := range all {
			_ = w.Write([]string{strconv.FormatInt(t.ID, 10), t.Description, strconv.FormatBool(t.Completed)})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case "pdf":
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(40, 10, "Task List")
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		tr := pdf.UnicodeTranslatorFromDescriptor("")
		if len(all) == 0 {
			pdf.MultiCell(0, 6, "No tasks.", "0", "L", false)
		}
		for _, t := range all {
			mark := "[ ]"
			if t.Completed {
				mark = "[x]"
			}
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s #%d %s", mark, t.ID, t.Description)), "0", "L", false)
		}
		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
