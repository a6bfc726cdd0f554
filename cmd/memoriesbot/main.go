package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"memoriesbot/internal/di"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/structures"
)

func main() {
	cmd := &cli.Command{
		Name:   "memoriesbot",
		Usage:  "resurface pinned messages on their anniversary",
		Action: runAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "mirror logs to the console",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "connect the bot and run the daily memory check",
				Action: runAction,
			},
			{
				Name:   "check",
				Usage:  "run one memory check now and print the report",
				Action: checkAction,
			},
			{
				Name:   "resync",
				Usage:  "refetch the pins of every watched channel",
				Action: resyncAction,
			},
			{
				Name:   "validate",
				Usage:  "load and validate the config file",
				Action: validateAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliFlags(cmd *cli.Command) *structures.CliFlags {
	return &structures.CliFlags{
		ConfigPath: cmd.String("config"),
		DebugMode:  cmd.Bool("debug"),
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	app, err := di.InitApp(cliFlags(cmd))
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	app, err := di.InitApp(cliFlags(cmd))
	if err != nil {
		return err
	}
	report, err := app.CheckOnce(ctx)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func resyncAction(ctx context.Context, cmd *cli.Command) error {
	app, err := di.InitApp(cliFlags(cmd))
	if err != nil {
		return err
	}
	count, err := app.ResyncOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("stored %s pins\n", humanize.Comma(int64(count)))
	return nil
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	conf, err := providers.NewConfigProvider(cliFlags(cmd))
	if err != nil {
		return err
	}
	fmt.Printf("%s config %s is valid, daily check at %02d:%02d UTC\n", conf.AppName, conf.Path, conf.Memories.Hour, conf.Memories.Minute)
	return nil
}
