// Package main runs the superstructure against simulated actuators, pressing operator buttons
// in order and printing the robot's status after each one.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/superstructure/config"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/robot"
)

const (
	flagConfig     = "config"
	flagDebug      = "debug"
	flagScoreLevel = "score-level"
	flagPickupMode = "pickup-mode"
	flagPiece      = "piece"
	flagSequence   = "sequence"
	flagMaxTicks   = "max-ticks"
)

func main() {
	app := &cli.App{
		Name:            "sim",
		Usage:           "simulate the superstructure",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`, the built-in robot if unset",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "press buttons in order and print the status after each settles",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagScoreLevel, Usage: "initial score level (HIGH, MID, LOW_FRONT, LOW_BACK)"},
					&cli.StringFlag{Name: flagPickupMode, Usage: "initial pickup mode (GROUND, STATION)"},
					&cli.StringFlag{Name: flagPiece, Usage: "initial desired game piece (CONE, CUBE)"},
					&cli.StringSliceFlag{
						Name:  flagSequence,
						Usage: "buttons to press, e.g. home,pickup,stow,place",
						Value: cli.NewStringSlice("home", "stow", "place"),
					},
					&cli.IntFlag{Name: flagMaxTicks, Value: 1000, Usage: "ticks to wait for each button to settle"},
				},
				Action: runAction,
			},
			{
				Name:   "states",
				Usage:  "print the named states and how they connect",
				Action: statesAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the config file",
				Action: schemaAction,
			},
			{
				Name:   "validate",
				Usage:  "read and validate the config file",
				Action: validateAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(c *cli.Context, cfg *config.Config) (logging.Logger, error) {
	if c.Bool(flagDebug) {
		return logging.NewDebugLogger("sim"), nil
	}
	logger := logging.NewLogger("sim")
	if cfg != nil && cfg.LogLevel != "" {
		level, err := logging.LevelFromString(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	}
	return logger, nil
}

func readConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(flagConfig)
	if path == "" {
		cfg := config.Default()
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate("")
	}
	return config.Read(c.Context, path, logging.NewBlankLogger("config"))
}

func runAction(c *cli.Context) (err error) {
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	if v := c.String(flagScoreLevel); v != "" {
		cfg.Preferences.ScoreLevel = v
	}
	if v := c.String(flagPickupMode); v != "" {
		cfg.Preferences.PickupMode = v
	}
	if v := c.String(flagPiece); v != "" {
		cfg.Preferences.DesiredPiece = v
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}

	ctx := c.Context
	mockClock := clock.NewMock()
	r, err := robot.New(ctx, cfg, mockClock, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, r.Close(context.Background()))
	}()

	out := c.App.Writer
	for _, button := range c.StringSlice(flagSequence) {
		button = strings.TrimSpace(button)
		if _, err := r.Press(ctx, button); err != nil {
			return err
		}
		ticks := 0
		for ; ticks < c.Int(flagMaxTicks); ticks++ {
			mockClock.Add(cfg.TickPeriod())
			if err := r.Tick(ctx); err != nil {
				logger.Warnw("tick failed", "error", err)
			}
			if !r.IsRunning(button) {
				break
			}
		}
		if r.IsRunning(button) {
			return errors.Errorf("%q did not settle within %d ticks", button, c.Int(flagMaxTicks))
		}
		fmt.Fprintf(out, "== %s (%d ticks, %s)\n", button, ticks+1, mockClock.Now().Format("15:04:05.000"))
		if err := robot.RenderStatus(out, r.Status()); err != nil {
			return err
		}
	}
	return nil
}

func statesAction(c *cli.Context) error {
	_, err := fmt.Fprintln(c.App.Writer, robot.RenderStates())
	return err
}

func schemaAction(c *cli.Context) error {
	raw, err := config.SchemaJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(raw))
	return err
}

func validateAction(c *cli.Context) error {
	if c.String(flagConfig) == "" {
		return errors.New("--config is required")
	}
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s is valid\n", cfg.ConfigFilePath)
	return err
}
