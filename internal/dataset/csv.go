package dataset

import "strings"

// splitLine splits one delimited row, honoring double-quoted fields that may
// contain the delimiter. Quotes themselves are not kept.
func splitLine(line string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	out = append(out, strings.TrimSpace(cur.String()))
	return out
}

// isTrailerRow reports whether a line starts a trailer/summary block that
// terminates parsing (national totals, distribution breakdowns).
func isTrailerRow(line string) bool {
	u := strings.ToUpper(line)
	return strings.HasPrefix(u, "TOTAL") || strings.HasPrefix(u, "DISTRIBUCION") || strings.HasPrefix(u, "DISTRIBUCIÓN")
}
