package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/park285/webchess/internal/authority"
	"github.com/park285/webchess/internal/board"
	"github.com/park285/webchess/internal/obslog"
	"github.com/park285/webchess/internal/view"
	"go.uber.org/zap"
)

func main() {
	square := flag.String("square", "", "also list legal moves from this square (e.g. e2)")
	timeout := flag.Duration("timeout", 8*time.Second, "per-request timeout")
	flag.Parse()

	logger, err := obslog.New(obslog.Options{Level: "info", Console: true, Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	baseURL := strings.TrimSpace(os.Getenv("AUTHORITY_BASE_URL"))
	if baseURL == "" {
		logger.Fatal("AUTHORITY_BASE_URL is required")
	}
	client := authority.NewClient(baseURL, authority.WithTimeout(*timeout), authority.WithRetry(1), authority.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), 3 * *timeout)
	defer cancel()

	failed := false
	st, err := client.State(ctx)
	if err != nil {
		failed = true
		logger.Error("get_state_failed", zap.Error(err), zap.String("kind", errorKind(err)))
	} else {
		placement, perr := board.ParsePlacement(st.Placement())
		if perr != nil {
			failed = true
			logger.Error("get_state_malformed", zap.String("fen", st.FEN), zap.Error(perr))
		} else {
			logger.Info("get_state_ok", zap.String("turn", st.Turn), zap.Bool("game_over", st.GameOver), zap.String("player", st.Player))
			var f view.Frame
			for _, sq := range placement.Occupied() {
				f.Glyphs[sq] = board.Glyph(placement.At(sq))
			}
			fmt.Print(view.RenderBoard(f))
		}
	}

	text, err := client.Logs(ctx)
	if err != nil {
		failed = true
		logger.Error("logs_failed", zap.Error(err), zap.String("kind", errorKind(err)))
	} else {
		logger.Info("logs_ok", zap.Int("bytes", len(text)), zap.Int("lines", strings.Count(text, "\n")))
	}

	if *square != "" {
		sq, err := board.ParseSquare(*square)
		if err != nil {
			logger.Fatal("bad_square", zap.Error(err))
		}
		moves, err := client.LegalMoves(ctx, sq.String())
		if err != nil {
			failed = true
			logger.Error("valid_moves_failed", zap.Error(err), zap.String("kind", errorKind(err)))
		} else {
			logger.Info("valid_moves_ok", zap.Stringer("from", sq), zap.Strings("moves", moves))
		}
	}

	if failed {
		os.Exit(1)
	}
}

func errorKind(err error) string {
	var te *authority.TransportError
	var se *authority.StatusError
	var de *authority.DecodeError
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &se):
		return fmt.Sprintf("status_%d", se.Status)
	case errors.As(err, &de):
		return "decode"
	default:
		return "other"
	}
}
