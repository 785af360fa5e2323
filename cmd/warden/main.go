package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/devcabi-net/mirage-community-sub000/moderation"
	"github.com/devcabi-net/mirage-community-sub000/moderation/engine"
	"github.com/devcabi-net/mirage-community-sub000/moderation/provider/openai"
	"github.com/devcabi-net/mirage-community-sub000/moderation/provider/perspective"
	"github.com/devcabi-net/mirage-community-sub000/pkg/metrics"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "warden",
		Usage:   "content classification daemon (keeps the gates)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "primary-endpoint",
			Usage:   "base URL of the primary (binary-classification) provider",
			Value:   openai.DefaultEndpoint,
			EnvVars: []string{"WARDEN_PRIMARY_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "primary-api-key",
			Usage:   "API key for the primary provider; empty skips the stage",
			EnvVars: []string{"WARDEN_PRIMARY_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "secondary-endpoint",
			Usage:   "base URL of the secondary (attribute-scoring) provider",
			Value:   perspective.DefaultEndpoint,
			EnvVars: []string{"WARDEN_SECONDARY_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "secondary-api-key",
			Usage:   "API key for the secondary provider; empty skips the stage",
			EnvVars: []string{"WARDEN_SECONDARY_API_KEY", "PERSPECTIVE_API_KEY"},
		},
		&cli.DurationFlag{
			Name:    "stage-timeout",
			Usage:   "timeout for each network classification stage",
			Value:   engine.DefaultStageTimeout,
			EnvVars: []string{"WARDEN_STAGE_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"WARDEN_LOG_LEVEL", "LOG_LEVEL"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		classifyCmd,
	}

	return app.Run(args)
}

func configLogger(cctx *cli.Context) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// configEngine builds the classification engine from CLI/env configuration.
// A stage with no API key configured is simply absent from the chain.
func configEngine(cctx *cli.Context, logger *slog.Logger) (*engine.Engine, error) {
	var primary, secondary moderation.Provider

	if key := cctx.String("primary-api-key"); key != "" {
		p, err := openai.New(openai.Config{
			Endpoint: cctx.String("primary-endpoint"),
			APIKey:   key,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring primary provider: %w", err)
		}
		primary = p
	} else {
		logger.Warn("no primary provider API key configured, stage will be skipped")
	}

	if key := cctx.String("secondary-api-key"); key != "" {
		p, err := perspective.New(perspective.Config{
			Endpoint: cctx.String("secondary-endpoint"),
			APIKey:   key,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring secondary provider: %w", err)
		}
		secondary = p
	} else {
		logger.Warn("no secondary provider API key configured, stage will be skipped")
	}

	return engine.New(engine.Config{
		Logger:       logger,
		Primary:      primary,
		Secondary:    secondary,
		StageTimeout: cctx.Duration("stage-timeout"),
	}), nil
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the classification service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the HTTP API",
			Value:   ":3985",
			EnvVars: []string{"WARDEN_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3986",
			EnvVars: []string{"WARDEN_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := configLogger(cctx)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			logger.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				log.Fatal("failed to create trace exporter", "error", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					logger.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("warden"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		eng, err := configEngine(cctx, logger)
		if err != nil {
			return err
		}

		srv, err := NewServer(eng, Config{
			Logger: logger,
			Bind:   cctx.String("bind"),
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			if err := metrics.RunServer(ctx, cancel, cctx.String("metrics-listen")); err != nil {
				logger.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		return srv.RunAPI(ctx)
	},
}

var classifyCmd = &cli.Command{
	Name:      "classify",
	Usage:     "classify a single piece of text and print the verdict as JSON",
	ArgsUsage: "<text>",
	Action: func(cctx *cli.Context) error {
		logger := configLogger(cctx)

		if cctx.Args().Len() == 0 {
			return fmt.Errorf("text argument is required")
		}

		eng, err := configEngine(cctx, logger)
		if err != nil {
			return err
		}

		res := eng.Classify(cctx.Context, strings.Join(cctx.Args().Slice(), " "))
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
