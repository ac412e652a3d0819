package logpoll

import (
	"context"
	"sync"
	"time"

	"github.com/park285/webchess/internal/msgcat"
	"go.uber.org/zap"
)

// Source fetches the authority's game log.
type Source interface {
	Logs(ctx context.Context) (string, error)
}

// Sink replaces the displayed log text.
type Sink interface {
	ShowLog(text string)
}

// Poller refreshes the log panel on a fixed interval and on demand.
// It never touches session state.
type Poller struct {
	src      Source
	sink     Sink
	msgs     *msgcat.Catalog
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	trigger  chan struct{}

	mu   sync.Mutex
	last string
}

type Option func(*Poller)

func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithCatalog(m *msgcat.Catalog) Option {
	return func(p *Poller) {
		if m != nil {
			p.msgs = m
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func New(src Source, sink Sink, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	p := &Poller{
		src:      src,
		sink:     sink,
		interval: interval,
		timeout:  10 * time.Second,
		logger:   zap.NewNop(),
		trigger:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(p)
	}
	if p.msgs == nil {
		p.msgs = msgcat.Default()
	}
	return p
}

// Trigger requests a refresh outside the schedule. Pending requests coalesce.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches once and updates the sink. Empty text shows a placeholder;
// any failure shows a fixed error line and is returned.
func (p *Poller) Refresh(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	text, err := p.src.Logs(cctx)
	cancel()

	var shown string
	switch {
	case err != nil:
		p.logger.Warn("logs_fetch_failed", zap.Error(err))
		shown = p.msgs.Text("log.error", nil)
	case text == "":
		shown = p.msgs.Text("log.empty", nil)
	default:
		shown = text
	}

	p.mu.Lock()
	p.last = shown
	p.mu.Unlock()
	p.sink.ShowLog(shown)
	return err
}

// Last is the most recently displayed text.
func (p *Poller) Last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run refreshes immediately, then on every tick or trigger until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	_ = p.Refresh(ctx)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		case <-p.trigger:
			p.logger.Debug("logs_refresh_triggered")
		}
		if ctx.Err() != nil {
			return
		}
		_ = p.Refresh(ctx)
	}
}
