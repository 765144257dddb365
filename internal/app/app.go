// Package app assembles the bot: config, logging, storage, the Discord
// session, the notifier loops, and the gateway event handlers.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"

	"pdbot/internal/command"
	"pdbot/internal/config"
	"pdbot/internal/decksite"
	"pdbot/internal/discord"
	"pdbot/internal/issues"
	"pdbot/internal/notifier"
	"pdbot/internal/roles"
	"pdbot/internal/runtime/supervisor"
	"pdbot/internal/storage"
	logx "pdbot/pkg/logx"
)

const buggedCardsBlobKey = "bugged_cards"

type App struct {
	cfgPath string
	cfgm    *config.Manager

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	client   *decksite.Client
	reporter *issues.Reporter

	session *discordgo.Session
	gw      *discord.Gateway

	router     *command.Router
	titles     *roles.TitleCache
	reconciler *roles.Reconciler

	cron *cron.Cron
	sup  *supervisor.Supervisor

	// presence tracks the last known state per user so role work only
	// fires on edges (offline to online, streaming toggled).
	presenceMu sync.Mutex
	presence   map[string]presenceState
}

type presenceState struct {
	status    discordgo.Status
	streaming bool
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentMessageContent

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "discord"))
	gw := discord.NewGateway(session, cfg.Discord.GuildID, bootLog)

	// Bootstrap with the Discord sink disabled: set the target first, then
	// Apply() the final config, so enabling it never warns about a missing
	// target.
	baseLogCfg := mapLoggingConfig(cfg)
	baseLogCfg.Discord.Enabled = false
	logSvc, log := logx.New(baseLogCfg, gw)
	log = log.With(logx.String("comp", "app"))

	if id := strings.TrimSpace(cfg.Discord.LogChannelID); id != "" {
		logSvc.SetDiscordTarget(id)
	}
	logSvc.Apply(mapLoggingConfig(cfg))

	var store storage.Store
	if cfg.Storage != nil {
		sc, err := mapStorageConfig(cfg.Storage)
		if err != nil {
			return nil, err
		}
		store, err = storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		if store != nil {
			log.Info("storage enabled", logx.String("driver", sc.Driver))
		}
	}

	timeout, err := config.DurationOr("decksite.timeout", cfg.Decksite.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	client := decksite.New(decksite.Config{
		BaseURL: cfg.Decksite.BaseURL,
		Timeout: timeout,
	}, log.With(logx.String("comp", "decksite")))

	var reporter *issues.Reporter
	if cfg.Github != nil {
		reporter, err = issues.New(issues.Config{
			Enabled: cfg.Github.Enabled,
			Token:   cfg.Github.Token,
			Repo:    cfg.Github.Repo,
		}, log.With(logx.String("comp", "issues")))
		if err != nil {
			return nil, err
		}
	}

	titles := roles.NewTitleCache(client.AchievementCatalog, store, log.With(logx.String("comp", "roles")))
	reconciler := roles.NewReconciler(gw, titles, log.With(logx.String("comp", "roles")))

	return &App{
		cfgPath:    cfgPath,
		cfgm:       cfgm,
		log:        log,
		logs:       logSvc,
		store:      store,
		client:     client,
		reporter:   reporter,
		session:    session,
		gw:         gw,
		router:     command.NewRouter(gw, log.With(logx.String("comp", "commands"))),
		titles:     titles,
		reconciler: reconciler,
		cron:       cron.New(),
		presence:   map[string]presenceState{},
	}, nil
}

// Done is closed when the supervisor context is cancelled, either by a
// fatal error, a requested reboot, or Stop.
// reportErr is the shared error funnel: supervisor panics, task-terminal
// errors, and per-iteration platform failures all land here and become
// tracker issues when the reporter is configured.
func (a *App) reportErr(component string, err error) {
	a.reporter.ReportError(context.Background(), component, err)
}

func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithOnError(a.reportErr),
	)
	cfg := a.cfgm.Get()

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(validateConfig)

	command.RegisterBuiltins(a.router, a.store, a.sup, rebootFlagKey(cfg), cfg.Discord.OwnerUserIDs)

	a.session.AddHandler(a.onReady)
	a.session.AddHandler(a.onMessage)
	a.session.AddHandler(a.onReactionAdd)
	a.session.AddHandler(a.onPresenceUpdate)
	a.session.AddHandler(a.onMemberJoin)
	a.session.AddHandler(a.onGuildCreate)

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}

	a.startNotifiers(cfg)
	a.startBugsRefresh(cfg)

	a.sup.GoRestart("config.watch", a.cfgm.Watch)
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})

	return nil
}

func (a *App) startNotifiers(cfg *config.Config) {
	siteURL := cfg.Decksite.BaseURL

	tournament := &notifier.Tournament{
		Client:        a.client,
		Send:          a.gw,
		Store:         a.store,
		ChannelID:     cfg.Discord.TournamentChannelID,
		SiteURL:       siteURL,
		GatherlingURL: cfg.Decksite.GatherlingURL,
		Log:           a.log.With(logx.String("comp", "notifier.tournament")),
		OnError:       a.reportErr,
	}
	a.sup.Go("notifier.tournament", tournament.Run)

	league := &notifier.League{
		Client:    a.client,
		Send:      a.gw,
		Store:     a.store,
		ChannelID: cfg.Discord.TournamentChannelID,
		SiteURL:   siteURL,
		Log:       a.log.With(logx.String("comp", "notifier.league")),
		OnError:   a.reportErr,
	}
	a.sup.Go("notifier.league", league.Run)

	hype := &notifier.RotationHype{
		Client:       a.client,
		Send:         a.gw,
		ChannelID:    cfg.Discord.RotationHypeChannelID,
		SiteURL:      siteURL,
		ProgressPath: cfg.Rotation.ProgressPath,
		TotalRuns:    cfg.Rotation.TotalRuns,
		Log:          a.log.With(logx.String("comp", "notifier.rotation")),
		OnError:      a.reportErr,
	}
	a.sup.Go("notifier.rotation", hype.Run)

	poll, err := config.DurationOr("reboot.poll", cfg.Reboot.Poll, time.Minute)
	if err != nil {
		poll = time.Minute
	}
	watch := &notifier.RebootWatch{
		Store:   a.store,
		FlagKey: rebootFlagKey(cfg),
		Poll:    poll,
		Trigger: a.sup.Cancel,
		Log:     a.log.With(logx.String("comp", "reboot")),
	}
	a.sup.Go("reboot.watch", watch.Run)
}

// startBugsRefresh schedules the bugged-card catalog refresh on its own
// low-frequency timer, decoupled from the tournament loop.
func (a *App) startBugsRefresh(cfg *config.Config) {
	if cfg.Bugs.URL == "" || a.store == nil {
		return
	}
	spec := cfg.Bugs.RefreshSpec
	if spec == "" {
		spec = "@every 6h"
	}
	log := a.log.With(logx.String("comp", "bugs"))
	job := func() {
		ctx, cancel := context.WithTimeout(a.sup.Context(), time.Minute)
		defer cancel()
		cards, err := a.client.BuggedCards(ctx, cfg.Bugs.URL)
		if err != nil {
			log.Warn("bugged card refresh failed", logx.Err(err))
			return
		}
		b, err := json.Marshal(cards)
		if err != nil {
			return
		}
		if err := a.store.PutBlob(ctx, buggedCardsBlobKey, b); err != nil {
			log.Warn("storing bugged cards failed", logx.Err(err))
			return
		}
		log.Info("bugged cards refreshed", logx.Int("count", len(cards)))
	}
	if _, err := a.cron.AddFunc(spec, job); err != nil {
		log.Warn("invalid bugs.refresh_spec, refresh disabled", logx.String("spec", spec), logx.Err(err))
		return
	}
	a.cron.Start()
	go job() // prime the cache at startup
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs := config.SummarizeConfigChange(lastApplied, newCfg)
			if len(sections) > 0 {
				fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
				a.log.Debug("config change summary", fields...)
			} else {
				a.log.Debug("config reload received, but no effective changes detected")
			}
			lastApplied = newCfg

			for _, s := range sections {
				switch s {
				case "storage", "discord", "bugs":
					a.log.Warn("section change requires a restart to take effect", logx.String("section", s))
				}
			}

			if id := strings.TrimSpace(newCfg.Discord.LogChannelID); id != "" {
				a.logs.SetDiscordTarget(id)
			} else {
				a.logs.SetDiscordTarget("")
			}
			a.logs.Apply(mapLoggingConfig(newCfg))
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.cron != nil {
		a.cron.Stop()
	}
	var firstErr error
	if a.sup != nil {
		a.sup.Cancel()
		if err := a.sup.Wait(ctx); err != nil {
			firstErr = err
		}
	}
	if a.session != nil {
		if err := a.session.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return firstErr
}
