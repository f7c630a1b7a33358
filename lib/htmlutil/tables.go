package htmlutil

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ParseTables returns the cleaned cell text of every table row in the
// document. Rows without cells are skipped.
func ParseTables(ctx context.Context, body []byte) ([][]string, error) {
	_, span := tracer.Start(ctx, "ParseTables")
	defer span.End()

	reader, err := NewReader(body, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode document")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse document")
		return nil, err
	}

	rows := [][]string{}
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, CleanText(GetText(cell.Get(0))))
		})
		if len(cells) == 0 {
			return
		}
		rows = append(rows, cells)
	})
	span.SetAttributes(attribute.Int("row_count", len(rows)))
	return rows, nil
}

type Option struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// ParseOptions returns every <option> of the document in order.
func ParseOptions(ctx context.Context, body []byte) ([]Option, error) {
	_, span := tracer.Start(ctx, "ParseOptions")
	defer span.End()

	reader, err := NewReader(body, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode document")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse document")
		return nil, err
	}

	options := []Option{}
	doc.Find("option").Each(func(_ int, s *goquery.Selection) {
		_, selected := s.Attr("selected")
		options = append(options, Option{
			Value:    s.AttrOr("value", ""),
			Text:     CleanText(s.Text()),
			Selected: selected,
		})
	})
	return options, nil
}
