package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/webchess/internal/authority"
	appcfg "github.com/park285/webchess/internal/config"
	"github.com/park285/webchess/internal/console"
	"github.com/park285/webchess/internal/journal"
	"github.com/park285/webchess/internal/logpoll"
	"github.com/park285/webchess/internal/msgcat"
	"github.com/park285/webchess/internal/obslog"
	"github.com/park285/webchess/internal/session"
	"github.com/park285/webchess/internal/snapshot"
	"github.com/park285/webchess/internal/store"
	"github.com/park285/webchess/internal/view"
	"github.com/park285/webchess/internal/viewlink"
	"github.com/park285/webchess/pkg/chessdto"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}
	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("messages_error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	headers := func() map[string]string {
		return map[string]string{"X-Client-Id": cfg.ClientID}
	}

	auth := authority.NewClient(cfg.AuthorityBaseURL,
		authority.WithHeaderProvider(headers),
		authority.WithTimeout(cfg.AuthorityTimeout),
		authority.WithRetry(cfg.AuthorityRetry),
		authority.WithLogger(obslog.Named("authority")),
	)

	model := view.NewModel(msgs)
	presenters := view.Multi{model}

	var link *viewlink.Link
	if cfg.RendererWSURL != "" {
		link = viewlink.New(cfg.RendererWSURL,
			viewlink.WithHeaderProvider(headers),
			viewlink.WithLogger(obslog.Named("viewlink")),
		)
		link.OnStateChange(func(s viewlink.State) {
			logger.Info("renderer_state", zap.Stringer("state", s))
			if s == viewlink.StateConnected {
				// 재연결 시 현재 화면 다시 전송
				go link.SendSnapshot(model.Frame())
			}
		})
		presenters = append(presenters, link)
	}

	if cfg.SnapshotPath != "" {
		w := snapshot.NewWriter(cfg.SnapshotPath, snapshot.NewRenderer(64), obslog.Named("snapshot"))
		model.OnChange(w.Notify)
		go w.Run(ctx)
	}

	player, difficulty := "", cfg.DefaultDifficulty
	var history console.HistoryFunc
	sessionOpts := []session.Option{
		session.WithLogger(obslog.Named("session")),
		session.WithCatalog(msgs),
		session.WithCallTimeout(cfg.AuthorityTimeout),
		session.WithClientID(cfg.ClientID),
	}

	if cfg.RedisURL != "" {
		st, err := store.Open(ctx, cfg.RedisURL, cfg.ClientID)
		if err != nil {
			logger.Warn("redis_unavailable", zap.Error(err))
		} else {
			defer st.Close()
			if prefs, err := st.LoadPrefs(ctx); err != nil {
				logger.Warn("prefs_load_failed", zap.Error(err))
			} else if prefs != nil {
				player = prefs.Player
				if prefs.Difficulty != "" {
					difficulty = prefs.Difficulty
				}
				logger.Info("prefs_restored", zap.String("player", player), zap.String("difficulty", difficulty))
			}
			sessionOpts = append(sessionOpts, session.WithPrefs(st), session.WithRecorder(st))
			history = st.Recent
		}
	}

	if cfg.DatabaseURL != "" {
		jr, err := journal.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("journal_unavailable", zap.Error(err))
		} else {
			defer jr.Close()
			if err := jr.EnsureSchema(ctx); err != nil {
				logger.Warn("journal_schema_failed", zap.Error(err))
			}
			sessionOpts = append(sessionOpts, session.WithRecorder(jr))
			if history == nil {
				history = func(ctx context.Context, n int) ([]chessdto.GameRecord, error) {
					return jr.Recent(ctx, cfg.ClientID, n)
				}
			}
		}
	}

	if !cfg.KnownDifficulty(difficulty) {
		logger.Warn("difficulty_not_in_selector", zap.String("difficulty", difficulty), zap.Strings("known", cfg.Difficulties))
	}

	poller := logpoll.New(auth, presenters, cfg.LogRefreshInterval,
		logpoll.WithLogger(obslog.Named("logpoll")),
		logpoll.WithCatalog(msgs),
		logpoll.WithTimeout(cfg.AuthorityTimeout),
	)
	sessionOpts = append(sessionOpts,
		session.WithLogRefresher(poller),
		session.WithDifficulty(difficulty, cfg.Difficulties...),
		session.WithPlayer(player),
	)
	ctrl := session.New(auth, presenters, sessionOpts...)

	if link != nil {
		if err := link.Connect(ctx); err != nil {
			logger.Warn("renderer_connect_failed", zap.Error(err))
		}
		if cfg.InputMode != appcfg.InputConsole {
			viewlink.Bind(ctx, link, ctrl, poller)
		}
	}

	if err := ctrl.RefreshBoard(ctx); err != nil {
		logger.Warn("initial_board_failed", zap.Error(err))
	}
	go poller.Run(ctx)

	logger.Info("webchess_started",
		zap.String("authority", cfg.AuthorityBaseURL),
		zap.String("input", cfg.InputMode),
		zap.String("difficulty", difficulty),
	)

	if cfg.InputMode == appcfg.InputWS {
		<-ctx.Done()
	} else {
		con := console.New(os.Stdin, os.Stdout, ctrl, model, poller,
			console.WithCatalog(msgs),
			console.WithLogger(obslog.Named("console")),
			console.WithHistory(history),
			console.WithDifficulties(cfg.Difficulties),
		)
		if err := con.Run(ctx); err != nil {
			logger.Warn("console_error", zap.Error(err))
		}
		stop()
	}

	if link != nil {
		cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = link.Close(cctx)
		cancel()
	}
	logger.Info("webchess_stopped")
}
