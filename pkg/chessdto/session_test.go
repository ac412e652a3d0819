package chessdto

import "testing"

func TestStatePlacement(t *testing.T) {
	cases := map[string]string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1": "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR",
		"8/8/8/8/8/8/8/8": "8/8/8/8/8/8/8/8",
		"":                "",
		"   ":             "",
	}
	for fen, want := range cases {
		if got := (StateResponse{FEN: fen}).Placement(); got != want {
			t.Fatalf("Placement(%q) = %q, want %q", fen, got, want)
		}
	}
}

func TestMoveResponseFinished(t *testing.T) {
	if !(MoveResponse{Status: "finished", Result: "White wins"}).Finished() {
		t.Fatalf("expected finished")
	}
	if (MoveResponse{Status: "ok"}).Finished() {
		t.Fatalf("ok must not be finished")
	}
}

func TestDomainErrorMessage(t *testing.T) {
	if got := (DomainError{Code: "illegal"}).Error(); got != "illegal" {
		t.Fatalf("got %q", got)
	}
	if got := (DomainError{}).Error(); got != "game authority error" {
		t.Fatalf("got %q", got)
	}
}
