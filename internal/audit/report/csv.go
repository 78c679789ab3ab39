package report

import (
	"fmt"
	"strconv"
	"strings"

	"search-audit/internal/models"
)

// csvPositions is the fixed number of per-result column groups. Scored runs
// pad to this many slots; classifier-only runs leave them blank.
const csvPositions = 8

// ToCSV renders the fixed-column export consumed by the triage spreadsheet.
// Column layout is stable: downstream imports index columns by position.
func ToCSV(results []models.AuditResult) string {
	var b strings.Builder

	header := []string{
		"query", "category", "verdict", "passed", "dbCount", "resultCount",
		"avgScore", "relevancePercent", "flaggedCount", "timeMs",
	}
	for i := 1; i <= csvPositions; i++ {
		header = append(header,
			fmt.Sprintf("result%dTitle", i),
			fmt.Sprintf("result%dScore", i),
			fmt.Sprintf("result%dReason", i),
		)
	}
	header = append(header, "fixAction")
	writeRow(&b, header)

	for _, r := range results {
		row := []string{
			r.Query,
			r.Category,
			string(r.Verdict),
			strconv.FormatBool(r.Passed),
			strconv.Itoa(r.DBCount),
			strconv.Itoa(r.ResultCount),
			formatScore(r.AvgScore),
			strconv.Itoa(r.RelevancePercent),
			strconv.Itoa(r.FlaggedCount),
			strconv.FormatInt(r.ResponseTimeMs, 10),
		}

		for i := 0; i < csvPositions; i++ {
			if i < len(r.Results) {
				slot := r.Results[i]
				row = append(row, slot.Title, strconv.Itoa(slot.Score), slot.Reason)
			} else {
				row = append(row, "", "", "")
			}
		}

		row = append(row, r.FixAction)
		writeRow(&b, row)
	}

	return b.String()
}

func formatScore(score float64) string {
	if score == 0 {
		return "0"
	}
	return strconv.FormatFloat(score, 'f', 2, 64)
}

// writeRow emits one RFC 4180 record with CRLF line endings.
func writeRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeField(field))
	}
	b.WriteString("\r\n")
}

func escapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
