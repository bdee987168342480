// Package bot parses bot command flags and starts the gateway runtime.
package bot

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/louisbranch/tribunal/internal/commands"
	"github.com/louisbranch/tribunal/internal/court"
	"github.com/louisbranch/tribunal/internal/discord"
	entrypoint "github.com/louisbranch/tribunal/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/tribunal/internal/platform/grpc"
	"github.com/louisbranch/tribunal/internal/prison"
	"github.com/louisbranch/tribunal/internal/storage"
	"github.com/louisbranch/tribunal/internal/storage/memory"
	"github.com/louisbranch/tribunal/internal/storage/mongo"
	"github.com/louisbranch/tribunal/internal/storage/sqlite"
	"github.com/louisbranch/tribunal/internal/telemetry"
)

// Config holds bot command configuration.
type Config struct {
	DiscordToken      string `env:"TRIBUNAL_DISCORD_TOKEN"`
	StorageDriver     string `env:"TRIBUNAL_STORAGE_DRIVER" envDefault:"mongo"`
	MongoURI          string `env:"TRIBUNAL_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase     string `env:"TRIBUNAL_MONGO_DATABASE" envDefault:"tribunal"`
	SQLitePath        string `env:"TRIBUNAL_SQLITE_PATH" envDefault:"tribunal.db"`
	DevGuildID        string `env:"TRIBUNAL_DEV_GUILD_ID"`
	SetGlobalCommands bool   `env:"TRIBUNAL_SET_GLOBAL_COMMANDS"`
	HealthPort        int    `env:"TRIBUNAL_HEALTH_PORT" envDefault:"8080"`
	OperatorChannelID string `env:"TRIBUNAL_OPERATOR_CHANNEL_ID"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.StorageDriver, "storage", cfg.StorageDriver, "Storage driver: mongo, sqlite, or memory")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database path (storage=sqlite)")
	fs.StringVar(&cfg.DevGuildID, "dev-guild", cfg.DevGuildID, "Guild id to register commands in for development")
	fs.BoolVar(&cfg.SetGlobalCommands, "global-commands", cfg.SetGlobalCommands, "Register commands globally")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The liveness probe port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run connects to storage and the Discord gateway and serves until the
// context is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.DiscordToken == "" {
		return errors.New("TRIBUNAL_DISCORD_TOKEN is required")
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceBot, func(ctx context.Context) error {
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()
		return run(ctx, cfg, store)
	})
}

// openStore builds the configured storage backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg Config) (storage.Store, func() error, error) {
	switch cfg.StorageDriver {
	case "mongo":
		store, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo store: %w", err)
		}
		return store, func() error { return store.Close(context.Background()) }, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, store.Close, nil
	case "memory":
		return memory.NewStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func run(ctx context.Context, cfg Config, store storage.Store) error {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMembers

	client := discord.NewSession(session)
	emitter := telemetry.NewEmitter(client, cfg.OperatorChannelID)
	dispatcher := commands.NewDispatcher(
		court.NewEngine(store, client, emitter),
		prison.New(store, client, emitter),
		emitter,
	)
	session.AddHandler(dispatcher.HandleInteraction)
	session.AddHandler(dispatcher.HandleMemberAdd)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("close discord gateway: %v", err)
		}
	}()
	log.Printf("connected as %s", session.State.User.Username)

	if err := commands.Register(session, session.State.User.ID, cfg.DevGuildID, cfg.SetGlobalCommands); err != nil {
		return err
	}

	health, err := platformgrpc.NewHealthServer(cfg.HealthPort)
	if err != nil {
		return fmt.Errorf("start health server: %w", err)
	}
	health.SetServing(true)
	return health.Serve(ctx)
}
