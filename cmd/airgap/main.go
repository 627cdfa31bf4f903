package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"airgap/internal/config"
	"airgap/internal/metrics"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env carries what every command needs once flags and environment are read.
type env struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Metrics
}

var globalFlags = []cli.Flag{
	&cli.StringFlag{Name: "env-file", Usage: "dotenv file with AIRGAP_ settings"},
	&cli.StringFlag{Name: "runtime", Usage: "runtime name (kusama, polkadot, westend)"},
	&cli.StringFlag{Name: "scheme", Usage: "signature scheme (sr25519, ed25519, ecdsa)"},
	&cli.StringFlag{Name: "key-file", Usage: "key file holding the signing secret"},
	&cli.StringFlag{Name: "url", Usage: "node websocket endpoint, online commands only"},
	&cli.StringFlag{Name: "log-level", Usage: "log level"},
	&cli.StringFlag{Name: "log-format", Usage: "log format (text, json)"},
	&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics to this textfile on exit"},
}

// flagSettings maps global flags to configuration keys.
var flagSettings = map[string]string{
	"runtime":      "RUNTIME",
	"scheme":       "SCHEME",
	"key-file":     "KEY_FILE",
	"url":          "SUBSTRATE_URL",
	"log-level":    "LOG_LEVEL",
	"log-format":   "LOG_FORMAT",
	"metrics-file": "METRICS_FILE",
}

func newApp() *cli.App {
	e := &env{}
	return &cli.App{
		Name:  "airgap",
		Usage: "build and sign Substrate extrinsics offline",
		Flags: globalFlags,
		Before: func(c *cli.Context) error {
			return e.setup(c)
		},
		After: func(c *cli.Context) error {
			return e.flushMetrics()
		},
		Commands: []*cli.Command{
			callIndexCommand(e),
			payloadCommand(e),
			signCommand(e),
			assembleCommand(e),
			decodeCommand(e),
			fetchCommand(e),
			submitCommand(e),
		},
	}
}

func (e *env) setup(c *cli.Context) error {
	overrides := make(map[string]string)
	for flag, key := range flagSettings {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	cfg, err := config.Load(c.String("env-file"), overrides)
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(c.App.ErrWriter)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	e.cfg = cfg
	e.log = log
	e.metrics = metrics.NewMetrics()
	return nil
}

func (e *env) flushMetrics() error {
	if e.cfg == nil || e.cfg.MetricsFile == "" {
		return nil
	}
	return e.metrics.WriteToTextfile(e.cfg.MetricsFile)
}
