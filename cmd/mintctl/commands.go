package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/achievement-minter/internal/api/shared/dto"
	"github.com/feral-file/achievement-minter/internal/bootstrap"
	"github.com/feral-file/achievement-minter/internal/config"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/minter"
	"github.com/feral-file/achievement-minter/internal/store"
)

var (
	configFile string
	envPath    string
	listLimit  int
	listOffset int

	cfg *config.MinterConfig

	rootCmd = &cobra.Command{
		Use:           "mintctl",
		Short:         "Operate the achievement minter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.ChdirRepoRoot()
			var err error
			cfg, err = config.LoadMinterConfig(configFile, envPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return logger.Initialize(logger.Config{
				Debug:           cfg.Debug,
				SentryDSN:       cfg.SentryDSN,
				BreadcrumbLevel: zapcore.InfoLevel,
				Tags: map[string]string{
					"service": "mintctl",
				},
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Flush(2 * time.Second)
		},
	}

	migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Manage the mint record schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE:      runMigrate,
	}

	backlogCmd = &cobra.Command{
		Use:   "backlog",
		Short: "Print the number of goals waiting to be minted",
		Args:  cobra.NoArgs,
		RunE:  runBacklog,
	}

	lastRunCmd = &cobra.Command{
		Use:   "last-run",
		Short: "Print the summary of the most recent minting run",
		Args:  cobra.NoArgs,
		RunE:  runLastRun,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one minting pass now and print its result",
		Args:  cobra.NoArgs,
		RunE:  runMint,
	}

	recordsCmd = &cobra.Command{
		Use:   "records [user_id]",
		Short: "List the achievements minted for a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecords,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "config/", "Path to environment files")

	recordsCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of records")
	recordsCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of records to skip")

	rootCmd.AddCommand(migrateCmd, backlogCmd, lastRunCmd, runCmd, recordsCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	app, err := bootstrap.NewStoreOnly(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	sqlDB, err := app.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	switch action {
	case "up":
		if err := store.RunMigrations(sqlDB); err != nil {
			return err
		}
	case "down":
		if err := store.MigrateDown(sqlDB); err != nil {
			return err
		}
	}

	version, err := store.SchemaVersion(sqlDB)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return err
}

func runBacklog(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.NewStoreOnly(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	pending, err := app.Store.CountEligibleGoals(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), dto.BacklogResponse{PendingCount: pending})
}

func runLastRun(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.NewStoreOnly(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	raw, err := app.Store.GetKeyValue(cmd.Context(), minter.LastRunKey)
	if err != nil {
		return err
	}
	if raw == "" {
		return errors.New("no minting run recorded yet")
	}

	var summary minter.RunSummary
	if err := app.JSON.Unmarshal([]byte(raw), &summary); err != nil {
		return fmt.Errorf("failed to decode last run: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), dto.MapRunSummaryToDTO(&summary))
}

func runMint(cmd *cobra.Command, args []string) error {
	// An interrupt stops the run between goals; the goal being minted is always finished
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Minter.RunOnce(minter.WithTrigger(ctx, minter.TriggerCLI))
	if perr := printJSON(cmd.OutOrStdout(), dto.MapRunResultToDTO(result)); perr != nil {
		return perr
	}
	return err
}

func runRecords(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	app, err := bootstrap.NewStoreOnly(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	records, total, err := app.Store.ListMintRecordsByUser(cmd.Context(), userID, listLimit, listOffset)
	if err != nil {
		return err
	}

	resp := dto.MintRecordListResponse{
		Items:  make([]dto.MintRecordResponse, 0, len(records)),
		Total:  total,
		Limit:  listLimit,
		Offset: listOffset,
	}
	for i := range records {
		resp.Items = append(resp.Items, dto.MapMintRecordToDTO(records[i]))
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
