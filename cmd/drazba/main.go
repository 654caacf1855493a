package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/drazba/internal/api"
	"github.com/erazemk/drazba/internal/auction"
	"github.com/erazemk/drazba/internal/config"
	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/driver"
	"github.com/erazemk/drazba/internal/events"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	level  slog.Leveler
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.level.Level()
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		level:  lr.level,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. Records below ERROR go to
// stdout, ERROR goes to stderr. If logPath is non-empty, all levels are also
// written to that file. Returns a cleanup function that closes the log file
// (if opened).
func setupLogger(logPath string, level slog.Level) (func(), error) {
	opts := &slog.HandlerOptions{Level: level}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		level:  level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	fs := flag.NewFlagSet("drazba", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var dbPath, addr, adminUser, logPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")
	fs.StringVar(&adminUser, "user", "", "")
	fs.StringVar(&adminUser, "u", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: drazba [flags]

Flags:
  -c, -config <path>      YAML config file (default: none, DRAZBA_* env only)
  -d, -db <path>          SQLite database path (default: drazba.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Flags override the config file and the environment.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	override(&cfg.DB.Path, dbPath)
	override(&cfg.Server.Addr, addr)
	override(&cfg.Admin.User, adminUser)
	override(&cfg.Log.Path, logPath)

	level, _ := cfg.Log.SlogLevel()
	closeLog, err := setupLogger(cfg.Log.Path, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func override(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}

func run(cfg config.Config) error {
	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DB.Path); os.IsNotExist(err) {
		password, err := initDatabase(cfg.DB.Path, cfg.Admin.User)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(cfg.DB.Path, cfg.Admin.User, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DB.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	rules, err := store.LoadRules(ctx, database)
	if err != nil {
		return fmt.Errorf("loading auction rules: %w", err)
	}
	slog.Info("auction rules loaded",
		"tiers", len(rules.Tiers),
		"bid_duration", rules.BidDuration(),
		"rtm_enabled", rules.RTMEnabled,
		"purse", model.FormatAmount(rules.InitialPurse),
	)

	hub := events.NewHub(originChecker(cfg.Live.AllowedOrigins))
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	publishers := events.Multi{hub}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("drazba"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				slog.Warn("nats disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				slog.Info("nats reconnected", "url", c.ConnectedUrl())
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer nc.Drain()

		np, err := events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix, cfg.NATS.JetStream)
		if err != nil {
			return err
		}
		if err := np.EnsureStream(ctx, cfg.NATS.Stream); err != nil {
			return err
		}
		publishers = append(publishers, np)
		slog.Info("publishing events to nats", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix, "jetstream", cfg.NATS.JetStream)
	}

	engine := auction.New(database,
		auction.WithLogger(slog.Default().With("component", "auction")),
		auction.WithPublisher(publishers),
	)

	if cfg.Driver.Enabled {
		d := driver.New(ctx, slog.Default().With("component", "driver"))
		if err := d.Add("tick", cfg.Driver.Schedule, engine.Tick); err != nil {
			return fmt.Errorf("scheduling tick: %w", err)
		}
		if err := d.Add("purge-revoked-tokens", cfg.Driver.PurgeSchedule, func(ctx context.Context) error {
			n, err := store.PurgeRevokedTokens(ctx, database, time.Now())
			if n > 0 {
				slog.Info("purged revoked tokens", "count", n)
			}
			return err
		}); err != nil {
			return fmt.Errorf("scheduling token purge: %w", err)
		}
		d.Start()
		defer d.Stop()
	} else {
		slog.Warn("driver disabled; items will not close on their own")
	}

	handler := api.LoggingMiddleware(api.NewRouter(database, engine, hub, jwtSecret))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	<-hubDone
	slog.Info("server stopped, closing database")
	return nil
}

// originChecker accepts websocket handshakes from the listed origins, or
// from anywhere when the list is empty.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		return set[strings.ToLower(r.Header.Get("Origin"))]
	}
}

// initDatabase creates a new database, applies the schema, seeds the default
// auction rules and creates the admin user.
func initDatabase(path, adminUsername string) (string, error) {
	database, err := db.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	fail := func(err error) (string, error) {
		database.Close()
		os.Remove(path)
		return "", err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("ensuring schema: %w", err))
	}

	ctx := context.Background()
	if err := store.SaveRules(ctx, database, model.DefaultRules()); err != nil {
		return fail(fmt.Errorf("seeding rules: %w", err))
	}

	password, err := generatePassword(16)
	if err != nil {
		return fail(fmt.Errorf("generating password: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fail(fmt.Errorf("hashing password: %w", err))
	}

	if _, err := store.CreateUser(ctx, database, adminUsername, string(hash), model.RoleAdmin); err != nil {
		return fail(fmt.Errorf("creating admin user: %w", err))
	}

	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized, default auction rules loaded.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
