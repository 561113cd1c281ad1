package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vango-dev/craftwire/internal/config"
	"github.com/vango-dev/craftwire/internal/errors"
	"github.com/vango-dev/craftwire/pkg/admin"
	"github.com/vango-dev/craftwire/pkg/capture"
	"github.com/vango-dev/craftwire/pkg/client"
)

type connectOptions struct {
	configPath  string
	server      string
	username    string
	offline     bool
	tokenEnv    string
	profileID   string
	dumpPackets bool
	dumpUnknown bool
	capture     string
	admin       string
	verbose     bool
}

func connectCmd() *cobra.Command {
	var opts connectOptions

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Join a server and chat from the terminal",
		Long: `Join a server, print chat messages and send each stdin line as chat.

The line "test" sends a position update half a block along x instead.
Online mode reads the access token from the environment variable named
by --token-env.

Examples:
  craftwire connect --server localhost --username Steve --offline
  craftwire connect --server mc.example.com --username Steve \
      --token-env MC_TOKEN --profile-id 069a79f444e94726a5befca90e38aaf5
  craftwire connect --server localhost --username Steve --offline \
      --capture s3://captures/session.cwcap --admin 127.0.0.1:9100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runConnect(ctx, cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	opts.bind(cmd)

	return cmd
}

// bind declares the command's flags on cmd.
func (o *connectOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "Path to craftwire.json")
	f.StringVarP(&o.server, "server", "s", "", "Server host or host:port (enclose IPv6 addresses in square brackets)")
	f.StringVarP(&o.username, "username", "u", "", "Username to log in with")
	f.BoolVarP(&o.offline, "offline", "o", false, "Connect in offline mode")
	f.StringVar(&o.tokenEnv, "token-env", "", "Environment variable holding the access token")
	f.StringVar(&o.profileID, "profile-id", "", "Profile UUID for online mode")
	f.BoolVarP(&o.dumpPackets, "dump-packets", "d", false, "Print sent and received packets to stderr")
	f.BoolVar(&o.dumpUnknown, "dump-unknown", false, "Include unknown packets in --dump-packets output")
	f.StringVar(&o.capture, "capture", "", "Record packets to FILE or s3://bucket/key")
	f.StringVar(&o.admin, "admin", "", "Serve /healthz, /status and /metrics on ADDR")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Log at debug level")
}

// apply overrides cfg with the flags the user set.
func (o connectOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = o.server
	}
	if flags.Changed("username") {
		cfg.Username = o.username
	}
	if flags.Changed("offline") {
		cfg.Offline = o.offline
	}
	if flags.Changed("token-env") {
		cfg.Auth.TokenEnv = o.tokenEnv
	}
	if flags.Changed("profile-id") {
		cfg.Auth.ProfileID = o.profileID
	}
	if flags.Changed("capture") {
		cfg.Capture.Target = o.capture
	}
	if flags.Changed("admin") {
		cfg.Admin.Address = o.admin
	}

	switch {
	case cfg.Server == "":
		return errors.New("CW105")
	case cfg.Username == "":
		return errors.New("CW104").WithDetail("A username is required").
			WithSuggestion("Pass --username or set \"username\" in craftwire.json")
	case !cfg.Offline && cfg.Auth.TokenEnv == "":
		return errors.New("CW104").WithDetail("Online mode needs --token-env and --profile-id").
			WithSuggestion("Pass --offline for servers that do not authenticate")
	}
	return cfg.Validate()
}

func runConnect(ctx context.Context, cfg *config.Config, opts connectOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	logger, err := newLogger(stderr, cfg.Log.Level, opts.verbose)
	if err != nil {
		return err
	}

	ccfg, err := cfg.ClientConfig(os.Getenv)
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	ccfg.Logger = logger
	ccfg.Metrics = client.NewMetrics(
		client.WithNamespace(cfg.Metrics.Namespace),
		client.WithRegistry(registry),
	)

	conn, err := client.New(cfg.Server, ccfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess := newSession(conn, stdout, stderr, sessionOptions{
		dumpPackets: opts.dumpPackets,
		dumpUnknown: opts.dumpUnknown,
	})
	sess.attach()

	if cfg.Capture.Target != "" {
		rec, err := startCapture(cfg.Capture, ccfg, logger)
		if err != nil {
			return err
		}
		rec.Attach(conn)
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("capture failed", "target", cfg.Capture.Target, "error", err)
				return
			}
			logger.Info("capture saved", "target", cfg.Capture.Target, "records", rec.Count())
		}()
	}

	if cfg.Admin.Address != "" {
		srv := admin.NewServer(conn, admin.Config{
			Address:  cfg.Admin.Address,
			Gatherer: registry,
			Logger:   logger,
		})
		if err := srv.Start(); err != nil {
			return errors.New("CW207").Wrap(err)
		}
		defer srv.Shutdown(context.Background())
	}

	if cfg.Online() {
		info(stdout, "Logging in as %s...", cfg.Username)
	} else {
		info(stdout, "Connecting in offline mode...")
	}
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	success(stdout, "Joined %s", conn.Address())

	go readLines(stdin, sess, logger)

	select {
	case <-ctx.Done():
		fmt.Fprintln(stdout, "Bye!")
		return nil
	case <-conn.Done():
		if err := conn.Err(); err != nil && !stderrors.Is(err, client.ErrClosed) {
			return err
		}
		return nil
	}
}

// readLines feeds stdin to the session until EOF. Failed sends are logged;
// the connection's own close reason is reported by runConnect.
func readLines(r io.Reader, sess *session, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if err := sess.handleLine(line); err != nil {
			logger.Warn("send failed", "error", err)
			if stderrors.Is(err, client.ErrClosed) {
				return
			}
		}
	}
}

// startCapture opens the capture sink and header. s3:// targets upload
// through an S3 client built from cfg.S3.
func startCapture(cfg config.CaptureConfig, ccfg *client.Config, logger *slog.Logger) (*capture.Recorder, error) {
	var s3 capture.PutObjectAPI
	if strings.HasPrefix(cfg.Target, "s3://") {
		s3 = capture.NewS3Client(capture.S3Options{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	}
	sink, err := capture.OpenSink(cfg.Target, s3)
	if err != nil {
		return nil, errors.New("CW206").Wrap(err)
	}
	rec, err := capture.NewRecorder(sink, ccfg.Registry, capture.WithLogger(logger))
	if err != nil {
		sink.Close()
		return nil, errors.New("CW206").Wrap(err)
	}
	return rec, nil
}
