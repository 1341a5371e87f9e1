package web

import (
	"fmt"

	"github.com/JonMunkholm/csvclean/internal/core"
)

//go:generate templ generate -f report.templ

// isSparse reports whether DropSparseColumns at the default threshold
// would remove c.
func isSparse(c core.ColumnProfile, rows int) bool {
	return rows > 0 && float64(c.NonMissing) < core.DefaultThreshold*float64(rows)
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", 100*float64(n)/float64(total))
}
