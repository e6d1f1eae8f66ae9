package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	discordrouter "github.com/marketingnexustrading-arch/TeamBot/internal/adapters/discord"
	"github.com/marketingnexustrading-arch/TeamBot/internal/adapters/httpapi"
	"github.com/marketingnexustrading-arch/TeamBot/internal/app/service"
	"github.com/marketingnexustrading-arch/TeamBot/internal/infra/config"
	"github.com/marketingnexustrading-arch/TeamBot/internal/infra/logger"
	"github.com/marketingnexustrading-arch/TeamBot/internal/infra/metrics"
	"github.com/marketingnexustrading-arch/TeamBot/internal/infra/storage"
)

const serviceName = "teambot"

func main() {
	envFile := pflag.String("env-file", ".env", "archivo .env a cargar antes del entorno")
	configFile := pflag.String("config", "config.json", "config.json de respaldo (TOKEN, GUILD_ID, TEAM_SIZE)")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.New(serviceName, "info").Warn("could not read env file", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.New(serviceName, "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	s, err := discordgo.New(cfg.BotAuth())
	if err != nil {
		return err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	dir := service.NewDirectory(func(guildID string) (*service.TeamService, error) {
		repo := storage.NewSnapshotRepo(cfg.SnapshotPathFor(guildID))
		ws := discordrouter.NewWorkspace(s, guildID, cfg.CategoryName, log.With("component", "workspace"))
		glog := log.With("component", "team_service", "snapshot", repo.Path())
		return service.NewTeamService(guildID, cfg.TeamSize, ws, ws, repo,
			service.WithRecorder(m),
			service.WithLogger(glog),
		), nil
	})

	limiter, closeLimiter := clickLimiter(cfg, log)
	defer closeLimiter()

	r := discordrouter.NewRouter(s, cfg.GuildID, dir, limiter, log.With("component", "router"))
	// handlers antes de Open para no perder los GuildCreate iniciales
	r.Handlers()

	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()
	log.Info("connected", "user", s.State.User.Username, "user_id", s.State.User.ID, "team_size", cfg.TeamSize)

	if err := r.Register(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var web *httpapi.Server
	if cfg.HTTPAddr != "" {
		web = httpapi.New(cfg.HTTPAddr, dir, m.Handler(), log.With("component", "http"))
		g.Go(web.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		var errs []error
		if err := dir.FlushAll(); err != nil {
			errs = append(errs, err)
		}
		if web != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := web.Shutdown(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func clickLimiter(cfg *config.Config, log *slog.Logger) (discordrouter.ClickLimiter, func()) {
	window := time.Duration(cfg.ClickWindowMS) * time.Millisecond
	if cfg.RedisAddr != "" {
		l, closeFn, err := discordrouter.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, window, log.With("component", "limiter"))
		if err == nil {
			log.Info("click limiter on redis", "addr", cfg.RedisAddr)
			return l, closeFn
		}
		log.Warn("redis unavailable, using in-memory click limiter", "addr", cfg.RedisAddr, "error", err)
	}
	return discordrouter.NewMemoryLimiter(window), func() {}
}
