package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/config"
	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/engine"
	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/timeseries"
)

const version = "0.1.0"

func main() {
	var (
		command    = flag.String("cmd", "", "Command to execute")
		configFile = flag.String("config", "", "Path to JSON config file (default: environment + built-in defaults)")
		entity     = flag.String("entity", "", "Entity key (region); empty trains the aggregate model")
		input      = flag.String("input", "", "CSV file of raw events (train)")
		periods    = flag.Int("periods", 0, "Forecast horizon in periods (predict); 0 uses the configured default")
		monthly    = flag.Bool("monthly", false, "Aggregate the forecast to calendar months (predict)")
		force      = flag.Bool("force", false, "Retrain even when a model already exists (train)")
		verbose    = flag.Bool("v", false, "Verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *command == "" {
		showHelp()
		return
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}
	if err := cfg.EnsureDataDirectories(); err != nil {
		log.WithError(err).Fatal("preparing data directories")
	}

	eng, err := engine.New(cfg, log, prometheus.NewRegistry())
	if err != nil {
		log.WithError(err).Fatal("initializing engine")
	}

	ctx := context.Background()

	switch *command {
	case "train":
		handleTrain(ctx, eng, log, *entity, *input, *force)
	case "predict":
		handlePredict(ctx, eng, log, *entity, *periods, *monthly)
	case "accuracy":
		handleAccuracy(eng, log, *entity)
	case "exists":
		if eng.ModelExists(*entity) {
			fmt.Println("trained")
		} else {
			fmt.Println("not trained")
			os.Exit(1)
		}
	case "list":
		handleList(eng, log)
	case "delete":
		if err := eng.Forget(*entity); err != nil {
			log.WithError(err).Fatal("deleting model")
		}
		fmt.Printf("deleted model for %q\n", *entity)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.LoadFromEnv(), nil
}

func handleTrain(ctx context.Context, eng *engine.Engine, log *logrus.Logger, entity, input string, force bool) {
	if input == "" {
		fmt.Println("Error: --input is required for train")
		os.Exit(1)
	}

	events, skipped, err := timeseries.LoadEventsCSV(input, nil)
	if err != nil {
		log.WithError(err).Fatal("reading events")
	}
	if skipped > 0 {
		log.WithField("rows", skipped).Warn("skipped unparseable rows")
	}
	if entity != "" {
		events = filterByEntity(events, entity)
	}

	report, err := eng.Train(ctx, entity, events, force)
	if err != nil {
		log.WithError(err).Fatal("training failed")
	}
	if report.Skipped {
		fmt.Printf("Model for %q already trained at %s (use --force to retrain)\n",
			report.EntityKey, report.Metadata.TrainedAt.Format("2006-01-02 15:04"))
		return
	}

	fmt.Printf("Trained %q: order %s over %d periods in %s\n",
		report.EntityKey, report.Metadata.Order, report.Metadata.TrainPeriods, report.Elapsed.Round(time.Millisecond))
	if report.Holdout != nil {
		fmt.Printf("  holdout MAE %.2f  RMSE %.2f", report.Holdout.MAE, report.Holdout.RMSE)
		if report.Holdout.MAPE != nil {
			fmt.Printf("  MAPE %.1f%%", *report.Holdout.MAPE)
		}
		fmt.Println()
	}
	if cv := report.Metadata.CrossValidation; cv != nil {
		fmt.Printf("  cross-validation MAPE %.1f%% ± %.1f over %d folds\n", cv.MeanMAPE, cv.StdMAPE, cv.Folds)
	}
}

func handlePredict(ctx context.Context, eng *engine.Engine, log *logrus.Logger, entity string, periods int, monthly bool) {
	result, err := eng.Predict(ctx, entity, periods)
	if err != nil {
		log.WithError(err).Fatal("prediction failed")
	}

	fmt.Printf("Forecast for %q (last observed %s via %s):\n",
		result.EntityKey,
		result.LastObserved.Date.Format("2006-01-02"),
		result.LastObserved.Source)

	if monthly {
		for _, p := range result.AggregateMonthly() {
			fmt.Printf("  %s  %8.1f  [%8.1f, %8.1f]  (%d periods)\n",
				p.Month.Format("2006-01"), p.Forecast, p.Lower, p.Upper, p.Periods)
		}
		return
	}
	for _, p := range result.Points {
		fmt.Printf("  %s  %8.1f  [%8.1f, %8.1f]\n",
			p.Date.Format("2006-01-02"), p.Forecast, p.Lower, p.Upper)
	}
}

func handleAccuracy(eng *engine.Engine, log *logrus.Logger, entity string) {
	meta, err := eng.Accuracy(entity)
	if err != nil {
		log.WithError(err).Fatal("loading accuracy")
	}
	out, _ := json.MarshalIndent(meta, "", "  ")
	fmt.Println(string(out))
}

func handleList(eng *engine.Engine, log *logrus.Logger) {
	metas, err := eng.Entities()
	if err != nil {
		log.WithError(err).Fatal("listing models")
	}
	if len(metas) == 0 {
		fmt.Println("no trained models")
		return
	}
	for _, m := range metas {
		fmt.Printf("%-20s %s  %d periods  trained %s\n",
			m.EntityKey, m.Order, m.TrainPeriods, m.TrainedAt.Format("2006-01-02 15:04"))
	}
}

func filterByEntity(events []timeseries.RawEvent, entity string) []timeseries.RawEvent {
	want := strings.ToLower(strings.TrimSpace(entity))
	var out []timeseries.RawEvent
	for _, ev := range events {
		if strings.ToLower(strings.TrimSpace(ev.EntityKey)) == want {
			out = append(out, ev)
		}
	}
	return out
}

func showHelp() {
	fmt.Printf(`LTO Registration Forecast CLI v%s

USAGE:
    forecast --cmd <command> [options]

COMMANDS:
    train     - Build the series from a CSV export and fit a model
    predict   - Produce a dated forecast from the stored model
    accuracy  - Print the stored evaluation metadata as JSON
    exists    - Exit 0 when a trained model is present
    list      - List every trained entity
    delete    - Remove an entity's model artifact

EXAMPLES:
    forecast --cmd train --input registrations.csv
    forecast --cmd train --input registrations.csv --entity "Davao Oriental" --force
    forecast --cmd predict --periods 12
    forecast --cmd predict --entity "Davao Oriental" --monthly
    forecast --cmd accuracy --entity "Davao Oriental"

OPTIONS:
    --config   JSON config file (defaults: environment, then built-ins)
    --entity   Entity key; empty means the aggregate model
    --input    CSV of raw events for training
    --periods  Forecast horizon; 0 uses the configured default
    --monthly  Aggregate forecast output to calendar months
    --force    Retrain over an existing model
    --v        Verbose logging

`, version)
}
