package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/ml"
)

var (
	modelDir = "model"
	dataCSV  = "data/findata.csv"

	modelDirFlag = &cli.StringFlag{
		Name:        "model-dir",
		Usage:       "Directory holding the active model artifacts and archive",
		Destination: &modelDir,
		Value:       modelDir,
		EnvVars:     []string{"MODEL_DIR"},
	}

	dataCSVFlag = &cli.StringFlag{
		Name:        "data",
		Usage:       "Training dataset CSV path",
		Destination: &dataCSV,
		Value:       dataCSV,
		EnvVars:     []string{"SAMPLES_CSV"},
	}
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	app := &cli.App{
		Name:  "modelctl",
		Usage: "Manage financial-distress model generations",
		Flags: []cli.Flag{
			modelDirFlag,
		},
		Commands: []*cli.Command{
			retrainCmd,
			listCmd,
			restoreCmd,
			infoCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

var retrainCmd = &cli.Command{
	Name:  "retrain",
	Usage: "Archive the current model and train a new generation from the dataset",
	Flags: []cli.Flag{
		dataCSVFlag,
	},
	Action: func(c *cli.Context) error {
		mm, err := ml.NewModelManager(modelDir)
		if err != nil {
			return err
		}
		gen, err := mm.Retrain(dataCSV)
		if err != nil {
			return err
		}
		fmt.Printf("trained version %s (%d samples, accuracy %.4f, f1 %.4f)\n",
			gen.Meta.Version, gen.Meta.DataSamples,
			gen.Meta.Metrics.Accuracy, gen.Meta.Metrics.F1)
		return nil
	},
}

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "List archived model generations",
	Action: func(c *cli.Context) error {
		mm, err := ml.NewModelManager(modelDir)
		if err != nil {
			return err
		}
		versions, err := mm.ListVersions()
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("no archived generations")
			return nil
		}
		for _, v := range versions {
			if v.TrainingDate != "" {
				fmt.Printf("%s\t(trained %s)\n", v.Name, v.TrainingDate)
			} else {
				fmt.Println(v.Name)
			}
		}
		return nil
	},
}

var restoreCmd = &cli.Command{
	Name:      "restore",
	Usage:     "Replace the active model with an archived generation",
	ArgsUsage: "<archive-entry>",
	Action: func(c *cli.Context) error {
		name := c.Args().First()
		if name == "" {
			return fmt.Errorf("archive entry name is required")
		}
		mm, err := ml.NewModelManager(modelDir)
		if err != nil {
			return err
		}
		if err := mm.Restore(name); err != nil {
			return err
		}
		fmt.Printf("restored %s\n", name)
		return nil
	},
}

var infoCmd = &cli.Command{
	Name:  "info",
	Usage: "Show the active model generation",
	Action: func(c *cli.Context) error {
		mm, err := ml.NewModelManager(modelDir)
		if err != nil {
			return err
		}
		info := mm.Info()
		fmt.Printf("version:       %s\n", info.Version)
		if info.TrainingDate != "" {
			fmt.Printf("training date: %s\n", info.TrainingDate)
		}
		if info.DataSamples > 0 {
			fmt.Printf("data samples:  %d\n", info.DataSamples)
		}
		fmt.Printf("metrics:       %s\n", info.Summary)
		return nil
	},
}
