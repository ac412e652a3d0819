package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/webchess/pkg/chessdto"

	_ "github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS webchess_games (
    game_id      TEXT PRIMARY KEY,
    client_id    TEXT NOT NULL DEFAULT '',
    player       TEXT NOT NULL,
    difficulty   TEXT NOT NULL DEFAULT '',
    result       TEXT NOT NULL,
    result_code  TEXT NOT NULL,
    moves        JSONB NOT NULL DEFAULT '[]',
    pgn          TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ,
    finished_at  TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS webchess_games_client_finished ON webchess_games (client_id, finished_at DESC);`

// Journal stores finished games in Postgres.
type Journal struct {
	db *sql.DB
}

func Open(ctx context.Context, databaseURL string) (*Journal, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Journal { return &Journal{db: db} }

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordOutcome upserts rec keyed by game id.
func (j *Journal) RecordOutcome(ctx context.Context, rec chessdto.GameRecord) error {
	if j == nil || j.db == nil {
		return nil
	}
	movesRaw, err := json.Marshal(nonNil(rec.Moves))
	if err != nil {
		return err
	}
	code := resultCode(rec.Result)
	duration := rec.FinishedAt.Sub(rec.StartedAt).Milliseconds()
	if rec.StartedAt.IsZero() || duration < 0 {
		duration = 0
	}

	q := `INSERT INTO webchess_games (
        game_id, client_id, player, difficulty, result, result_code,
        moves, pgn, started_at, finished_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      ON CONFLICT (game_id) DO UPDATE SET
        result=EXCLUDED.result,
        result_code=EXCLUDED.result_code,
        moves=EXCLUDED.moves,
        pgn=EXCLUDED.pgn,
        finished_at=EXCLUDED.finished_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = j.db.ExecContext(ctx, q,
		rec.GameID, rec.ClientID, rec.Player, rec.Difficulty, rec.Result, code,
		string(movesRaw), buildPGN(rec, code), nullTime(rec.StartedAt), rec.FinishedAt, duration,
	)
	return err
}

// Recent lists up to limit games of clientID, newest first.
func (j *Journal) Recent(ctx context.Context, clientID string, limit int) ([]chessdto.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `SELECT game_id, client_id, player, difficulty, result, moves, started_at, finished_at
        FROM webchess_games WHERE client_id = $1 ORDER BY finished_at DESC LIMIT $2`, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chessdto.GameRecord
	for rows.Next() {
		var (
			rec      chessdto.GameRecord
			movesRaw []byte
			started  sql.NullTime
		)
		if err := rows.Scan(&rec.GameID, &rec.ClientID, &rec.Player, &rec.Difficulty, &rec.Result, &movesRaw, &started, &rec.FinishedAt); err != nil {
			return nil, err
		}
		if started.Valid {
			rec.StartedAt = started.Time
		}
		if rec.Moves, err = decodeMoves(movesRaw); err != nil {
			return nil, fmt.Errorf("game %s: %w", rec.GameID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// resultCode maps the authority's result text to a PGN result token.
// The "Result:" line and a parenthesised token are read before keywords;
// the rest of the text includes the player's name.
func resultCode(result string) string {
	text := result
	for _, line := range strings.Split(result, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Result:"); ok {
			text = rest
			break
		}
	}
	for _, code := range []string{"1/2-1/2", "1-0", "0-1"} {
		if strings.Contains(text, "("+code+")") {
			return code
		}
	}
	r := strings.ToLower(text)
	switch {
	case strings.Contains(r, "draw"), strings.Contains(r, "stalemate"):
		return "1/2-1/2"
	case strings.Contains(r, "white"):
		return "1-0"
	case strings.Contains(r, "black"):
		return "0-1"
	default:
		return "*"
	}
}

// buildPGN writes the game headers. Only the player's half of the game is
// known to the client, so the moves go into a movetext comment.
func buildPGN(rec chessdto.GameRecord, code string) string {
	date := rec.FinishedAt
	if date.IsZero() {
		date = time.Now()
	}
	var b strings.Builder
	b.WriteString("[Event \"webchess\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(rec.Player))
	fmt.Fprintf(&b, "[Black \"AI (%s)\"]\n", sanitizePGN(rec.Difficulty))
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", code)
	if len(rec.Moves) > 0 {
		moves := make([]string, 0, len(rec.Moves))
		for _, m := range rec.Moves {
			moves = append(moves, strings.Trim(strings.TrimSpace(m), "{}"))
		}
		fmt.Fprintf(&b, "{player moves: %s} ", strings.Join(moves, " "))
	}
	b.WriteString(code)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}

func decodeMoves(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var moves []string
	if err := json.Unmarshal(raw, &moves); err != nil {
		return nil, fmt.Errorf("decode moves: %w", err)
	}
	return moves, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nonNil(moves []string) []string {
	if moves == nil {
		return []string{}
	}
	return moves
}
