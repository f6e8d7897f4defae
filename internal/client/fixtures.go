package client

import (
	"fmt"
	"io"
	"strings"

	"efl_xg/ingestion/internal/etl"
	"efl_xg/ingestion/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// ParseFixturesTable extracts fixture rows from a scores-and-fixtures page.
// Only rows carrying a th[scope=row] header cell are data rows; section
// headings and spacers are skipped. A cell missing from a row leaves its key
// absent so the cleaner can report the schema change.
func ParseFixturesTable(r io.Reader, league models.League, season int) ([]models.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixtures page: %w", err)
	}

	body := doc.Find("tbody").First()
	if body.Length() == 0 {
		return nil, &etl.SchemaError{League: league, Season: season, Detail: "no fixtures table body"}
	}

	var rows []models.RawRow
	body.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find(`th[scope="row"]`).Length() == 0 {
			return
		}

		row := make(models.RawRow, len(models.FixtureColumns))
		for _, col := range models.FixtureColumns {
			cell := tr.Find(fmt.Sprintf(`td[data-stat="%s"]`, col)).First()
			if cell.Length() == 0 {
				continue
			}
			row[col] = strings.TrimSpace(cell.Text())
		}
		rows = append(rows, row)
	})

	return rows, nil
}
