package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/webchess/pkg/chessdto"
)

func formatHistory(games []chessdto.GameRecord) string {
	var sb strings.Builder
	for _, g := range games {
		fmt.Fprintf(&sb, "• %s %s (%s) %s, moves: %s\n",
			formatShortTime(g.FinishedAt), g.Player, g.Difficulty, g.Result, formatRecentMoves(g.Moves))
		if d := formatGameDuration(g.FinishedAt.Sub(g.StartedAt)); d != "" && !g.StartedAt.IsZero() {
			fmt.Fprintf(&sb, "  took %s\n", d)
		}
	}
	return sb.String()
}

func formatRecentMoves(moves []string) string {
	if len(moves) == 0 {
		return "-"
	}
	const limit = 4
	if len(moves) <= limit {
		return strings.Join(moves, " ")
	}
	return "… " + strings.Join(moves[len(moves)-limit:], " ")
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
