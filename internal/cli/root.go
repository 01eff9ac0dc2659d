// Package cli implements the rawes command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/rawes/config"
	"github.com/kbukum/rawes/elastic"
	"github.com/kbukum/rawes/logger"
	"github.com/kbukum/rawes/observability"
)

// flags holds the global flags. Each one overrides the configuration
// only when set on the command line.
type flags struct {
	configFile string
	envFile    string
	url        string
	prefix     string
	timeout    time.Duration
	username   string
	password   string
	apiKey     string
	framed     bool
	insecure   bool
	http2      bool
	logLevel   string
	output     string
	jq         string
	fail       bool
}

type app struct {
	flags  flags
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// Execute runs the rawes command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree reading from in and writing
// results to out and diagnostics to errOut.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "rawes",
		Short: "Send raw requests to a search service",
		Long: `rawes sends requests to a search service over HTTP or Thrift and
prints the JSON reply.

The transport follows the URL: http:// and https:// use HTTP, thrift://
uses Thrift, and a bare host:port picks Thrift for ports 9500-9600.

Examples:
  rawes get _status
  rawes put tweets/tweet/1 --data '{"user":"kimchy"}'
  rawes get tweets/_search --param size=5 --jq '.hits.hits[]._source'
  rawes bulk tweets/tweet --file tweets.ndjson`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.CompletionOptions.DisableDefaultCmd = true

	f := &a.flags
	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "config file (default: ./rawes.yml, ./.rawes.yml, then the user config dir)")
	pf.StringVar(&f.envFile, "env-file", "", ".env file to load")
	pf.StringVarP(&f.url, "url", "u", "", "service URL (default "+defaultURL+")")
	pf.StringVar(&f.prefix, "prefix", "", "base path prepended to every request path")
	pf.DurationVarP(&f.timeout, "timeout", "t", 0, "per-call timeout (default 30s)")
	pf.StringVar(&f.username, "username", "", "HTTP basic auth user")
	pf.StringVar(&f.password, "password", "", "HTTP basic auth password")
	pf.StringVar(&f.apiKey, "api-key", "", "HTTP API key")
	pf.BoolVar(&f.framed, "framed", false, "use the framed Thrift transport")
	pf.BoolVarP(&f.insecure, "insecure", "k", false, "skip TLS certificate verification")
	pf.BoolVar(&f.http2, "http2", false, "negotiate HTTP/2 over TLS")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVarP(&f.output, "output", "o", formatJSON, "output format: json, yaml, raw")
	pf.StringVar(&f.jq, "jq", "", "jq expression applied to the reply")
	pf.BoolVarP(&f.fail, "fail", "f", false, "exit non-zero when the service replies with status >= 400")

	for _, method := range []string{"GET", "PUT", "POST", "DELETE", "HEAD"} {
		root.AddCommand(newVerbCommand(a, method))
	}
	root.AddCommand(newBulkCommand(a))
	root.AddCommand(newHealthCommand(a))
	root.AddCommand(newVersionCommand(a))
	return root
}

// loadConfig reads the configuration and overlays the flags set on cmd.
func (a *app) loadConfig(cmd *cobra.Command) (*Config, error) {
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if a.flags.configFile != "" {
		if _, err := os.Stat(a.flags.configFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		opts = append(opts, config.WithConfigFile(a.flags.configFile))
	}
	if a.flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(a.flags.envFile))
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}

	f := &a.flags
	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.Elastic.URL = f.url
	}
	if changed("prefix") {
		cfg.Elastic.Path = f.prefix
	}
	if changed("timeout") {
		cfg.Elastic.Timeout = f.timeout
	}
	if changed("username") {
		cfg.Elastic.Username = f.username
	}
	if changed("password") {
		cfg.Elastic.Password = f.password
	}
	if changed("api-key") {
		cfg.Elastic.APIKey = f.apiKey
	}
	if changed("framed") {
		cfg.Elastic.Framed = f.framed
	}
	if changed("http2") {
		cfg.Elastic.EnableHTTP2 = f.http2
	}
	if changed("insecure") && f.insecure {
		if cfg.Elastic.TLS == nil {
			cfg.Elastic.TLS = &elastic.TLSConfig{}
		}
		cfg.Elastic.TLS.SkipVerify = true
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// withClient builds a client from the configuration, runs fn, and
// releases the client and telemetry providers afterwards.
func (a *app) withClient(cmd *cobra.Command, fn func(context.Context, *elastic.Client) error) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := checkFormat(a.flags.output); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log := a.newLogger(cfg)
	defer func() { _ = log.Close() }()

	var shutdown []func(context.Context) error
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(shutdown) - 1; i >= 0; i-- {
			if err := shutdown[i](sctx); err != nil {
				log.Warn("shutdown failed", logger.Fields(logger.FieldError, err.Error()))
			}
		}
	}()

	opts := []elastic.Option{elastic.WithLogger(log.WithComponent("elastic"))}
	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return err
		}
		shutdown = append(shutdown, tp.Shutdown)
	}
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, cfg.Metrics)
		if err != nil {
			return err
		}
		shutdown = append(shutdown, mp.Shutdown)
		metrics, err := observability.NewClientMetrics(mp.Meter(serviceName))
		if err != nil {
			return err
		}
		opts = append(opts, elastic.WithMetrics(metrics))
	}

	client, err := elastic.New(cfg.Elastic, opts...)
	if err != nil {
		return err
	}
	shutdown = append(shutdown, client.Close)

	log.Debug("client ready", logger.Fields(
		logger.FieldEndpoint, client.Endpoint().String(),
		logger.FieldTransport, client.Endpoint().Kind.String(),
	))
	return fn(ctx, client)
}

// newLogger writes to errOut unless the configuration names a file, so
// replies on out stay machine readable.
func (a *app) newLogger(cfg *Config) *logger.Logger {
	if cfg.Logging.IsFile() {
		return cfg.NewLogger()
	}
	return logger.NewWithWriter(a.errOut, &cfg.Logging, cfg.Name)
}
