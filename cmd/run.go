package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"arena-go/agent"
	"arena-go/archive"
	"arena-go/config"
	"arena-go/coordination"
	"arena-go/engine"
	"arena-go/evaluator"
	"arena-go/game"
	"arena-go/model"
	"arena-go/worker"
)

var (
	configPath      string
	games           int
	threshold       float64
	archiveDir      string
	selfPlayWorkers int
	logLevel        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluation pipeline against the bundled game",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

		cfg := config.Default()
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("games") {
			cfg.GamesPerTournament = games
		}
		if cmd.Flags().Changed("threshold") {
			cfg.AcceptanceThreshold = threshold
		}
		if cmd.Flags().Changed("archive-dir") {
			cfg.ArchiveDir = archiveDir
		}
		if cmd.Flags().Changed("self-play-workers") {
			cfg.SelfPlayWorkers = selfPlayWorkers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg)
	},
}

func run(ctx context.Context, cfg config.Config) error {
	initial := model.Initial(make([]byte, 64))
	service := coordination.NewService(initial,
		coordination.WithPollInterval(time.Duration(cfg.BarrierPollInterval)),
		coordination.WithWarnAfter(time.Duration(cfg.BarrierWarnAfter)))
	eng := engine.New(func() game.State { return game.NewTicTacToe() })
	tournament := evaluator.NewTournament(eng, cfg.GamesPerTournament, cfg.AcceptanceThreshold)
	intake := make(chan *model.Version, 4)

	accepted := color.New(color.FgGreen, color.Bold).SprintFunc()
	coordinator := evaluator.NewCoordinator(intake, service, tournament,
		archive.New(cfg.ArchiveDir), agent.FromVersion, time.Duration(cfg.IntakePollTimeout),
		evaluator.WithPromotionHook(func(v *model.Version, outcome evaluator.Outcome, path string) {
			fmt.Printf("%s model version %d promoted fleet-wide (%d/%d wins) -> %s\n",
				accepted("accepted:"), v.Number, outcome.Wins, outcome.Games, path)
		}))

	var wg sync.WaitGroup
	for i := 0; i < cfg.SelfPlayWorkers; i++ {
		w := worker.NewSelfPlay(i+1, service, eng, agent.FromVersion)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Msgf("self-play worker stopped: %v", err)
			}
		}()
	}
	for i := 0; i < cfg.TrainingWorkers; i++ {
		w := worker.NewTraining(i+1, service, intake, time.Duration(cfg.TrainInterval), uint64(i+1))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Msgf("training worker stopped: %v", err)
			}
		}()
	}

	err := coordinator.Run(ctx)
	wg.Wait()
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("shut down")
		return nil
	}
	return err
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	runCmd.Flags().IntVar(&games, "games", 20, "Number of games per evaluation tournament")
	runCmd.Flags().Float64Var(&threshold, "threshold", 0.55, "Fraction of wins a candidate needs for acceptance")
	runCmd.Flags().StringVar(&archiveDir, "archive-dir", "models/accepted", "Directory for accepted model versions")
	runCmd.Flags().IntVar(&selfPlayWorkers, "self-play-workers", 2, "Number of self-play workers")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log verbosity level")

	rootCmd.AddCommand(runCmd)
}
