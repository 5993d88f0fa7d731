package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/snake-api/game/session"
)

// options is the resolved command line and environment configuration.
type options struct {
	Addr           string
	ConfigDir      string
	Mode           string
	Store          string
	RedisURL       string
	SessionsDir    string
	Codec          string
	SnapshotTTL    time.Duration
	StoreTimeout   time.Duration
	PathBase       string
	AdminToken     string
	SessionIdle    time.Duration
	ReapInterval   time.Duration
	MoveRate       float64
	StreamInterval time.Duration
	APIURL         string
	Debug          bool
	Ngrok          bool
	NgrokAuth      string
	NgrokDomain    string
}

// Store backends accepted by --store.
const (
	storeAuto  = "auto"
	storeRedis = "redis"
	storeFile  = "file"
	storeNone  = "none"
)

func envVars(name string, extra ...string) cli.ValueSourceChain {
	return cli.EnvVars(append([]string{"SNAKE_" + name}, extra...)...)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "snake-api",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost:8080", Usage: "HTTP listen address", Sources: envVars("ADDR")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game modes (empty for the built-in mode)", Sources: envVars("CONFIG_DIR", "CONFIG_DIR")},
			&cli.StringFlag{Name: "mode", Value: "classic", Usage: "game mode used for every session", Sources: envVars("MODE")},
			&cli.StringFlag{Name: "store", Value: storeAuto, Usage: "snapshot store: auto, redis, file or none", Sources: envVars("STORE")},
			&cli.StringFlag{Name: "redis-url", Usage: "redis://[:password@]host:port[/db] for the redis store", Sources: envVars("REDIS_URL", "REDIS_URL")},
			&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "directory for the file store", Sources: envVars("SESSIONS_DIR")},
			&cli.StringFlag{Name: "codec", Value: "json", Usage: "redis snapshot encoding: json or msgpack", Sources: envVars("CODEC")},
			&cli.DurationFlag{Name: "snapshot-ttl", Value: session.DefaultSnapshotTTL, Usage: "lifetime of stored snapshots", Sources: envVars("SNAPSHOT_TTL")},
			&cli.DurationFlag{Name: "store-timeout", Value: session.DefaultStoreTimeout, Usage: "deadline for each snapshot store call", Sources: envVars("STORE_TIMEOUT")},
			&cli.StringFlag{Name: "admin-token", Usage: "bearer token for /api/sessions; the routes are off when empty", Sources: envVars("ADMIN_TOKEN")},
			&cli.StringFlag{Name: "path-base", Usage: "also serve every route under this prefix, e.g. /snake-api", Sources: envVars("PATH_BASE")},
			&cli.DurationFlag{Name: "session-idle", Value: 24 * time.Hour, Usage: "evict sessions idle for longer than this", Sources: envVars("SESSION_IDLE")},
			&cli.DurationFlag{Name: "reap-interval", Value: time.Hour, Usage: "how often idle sessions are swept", Sources: envVars("REAP_INTERVAL")},
			&cli.FloatFlag{Name: "move-rate", Value: 20, Usage: "moves per second allowed per session (0 disables the limit)", Sources: envVars("MOVE_RATE")},
			&cli.DurationFlag{Name: "stream-interval", Value: 200 * time.Millisecond, Usage: "push interval of the SSE and websocket feeds", Sources: envVars("STREAM_INTERVAL")},
			&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "API used by the mcp command before starting an internal one", Sources: envVars("API_URL")},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", Sources: envVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel", Sources: envVars("NGROK", "NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: envVars("NGROK_AUTH", "NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: envVars("NGROK_DOMAIN", "NGROK_DOMAIN")},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (default)",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "run an MCP stdio server",
				Action: mcpAction,
			},
			{
				Name:   "validate",
				Usage:  "validate every game mode in the config directory",
				Action: validateAction,
			},
			{
				Name:      "inspect",
				Usage:     "print a stored session snapshot, or list stored sessions without an argument",
				ArgsUsage: "[session-id]",
				Action:    inspectAction,
			},
		},
	}
}

func readOptions(cmd *cli.Command) options {
	return options{
		Addr:           cmd.String("addr"),
		ConfigDir:      cmd.String("config-dir"),
		Mode:           cmd.String("mode"),
		Store:          cmd.String("store"),
		RedisURL:       cmd.String("redis-url"),
		SessionsDir:    cmd.String("sessions-dir"),
		Codec:          cmd.String("codec"),
		SnapshotTTL:    cmd.Duration("snapshot-ttl"),
		StoreTimeout:   cmd.Duration("store-timeout"),
		PathBase:       cmd.String("path-base"),
		AdminToken:     cmd.String("admin-token"),
		SessionIdle:    cmd.Duration("session-idle"),
		ReapInterval:   cmd.Duration("reap-interval"),
		MoveRate:       cmd.Float("move-rate"),
		StreamInterval: cmd.Duration("stream-interval"),
		APIURL:         cmd.String("api-url"),
		Debug:          cmd.Bool("debug"),
		Ngrok:          cmd.Bool("ngrok"),
		NgrokAuth:      cmd.String("ngrok-auth"),
		NgrokDomain:    cmd.String("ngrok-domain"),
	}
}

// storeKind resolves "auto" to redis when a URL is configured, else file.
func (o options) storeKind() (string, error) {
	switch o.Store {
	case storeAuto, "":
		if o.RedisURL != "" {
			return storeRedis, nil
		}
		return storeFile, nil
	case storeRedis, storeFile, storeNone:
		return o.Store, nil
	default:
		return "", fmt.Errorf("unknown store %q (want auto, redis, file or none)", o.Store)
	}
}

// moveBurst allows about one second worth of moves at once.
func (o options) moveBurst() int {
	return max(1, int(math.Ceil(o.MoveRate)))
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	opts := readOptions(cmd)
	logger, err := newLogger(opts.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return runServe(ctx, opts, logger)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	opts := readOptions(cmd)
	logger, err := newLogger(opts.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return runMCP(ctx, opts, logger)
}
