package viewlink

import (
	"context"
	"errors"

	"github.com/park285/webchess/internal/board"
	"go.uber.org/zap"
)

const eventQueueSize = 64

// Controller is the part of the session the renderer can drive.
type Controller interface {
	Start(ctx context.Context, player string) error
	Click(ctx context.Context, sq board.Square) error
	SetDifficulty(ctx context.Context, d string) bool
	RefreshBoard(ctx context.Context) error
}

// Refresher requests an immediate log reload.
type Refresher interface {
	Trigger()
}

// Bind feeds renderer events into ctrl on a single worker goroutine, so
// events are handled in arrival order without blocking the read loop.
// The worker stops when ctx is done.
func Bind(ctx context.Context, l *Link, ctrl Controller, logs Refresher) {
	queue := make(chan Event, eventQueueSize)
	l.OnEvent(func(ev Event) {
		select {
		case queue <- ev:
		default:
			l.logger.Warn("renderer_event_dropped", zap.String("type", ev.Type))
		}
	})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-queue:
				handleEvent(ctx, l.logger, ev, ctrl, logs)
			}
		}
	}()
}

func handleEvent(ctx context.Context, logger *zap.Logger, ev Event, ctrl Controller, logs Refresher) {
	var err error
	switch ev.Type {
	case EventClick:
		sq, perr := board.ParseSquare(ev.Square)
		if perr != nil {
			logger.Warn("renderer_bad_square", zap.String("square", ev.Square), zap.Error(perr))
			return
		}
		err = ctrl.Click(ctx, sq)
	case EventStart:
		err = ctrl.Start(ctx, ev.Player)
	case EventDifficulty:
		ctrl.SetDifficulty(ctx, ev.Value)
	case EventRefresh:
		err = ctrl.RefreshBoard(ctx)
		if logs != nil {
			logs.Trigger()
		}
	default:
		logger.Debug("renderer_event_unknown", zap.String("type", ev.Type))
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		// 사용자 알림은 컨트롤러가 이미 처리
		logger.Debug("renderer_event_failed", zap.String("type", ev.Type), zap.Error(err))
	}
}
