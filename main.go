package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"standupsnitch/internal/config"
	"standupsnitch/internal/report"
	slackclient "standupsnitch/internal/slack"
)

var (
	tokenFile         string
	inputChannelFile  string
	outputChannelFile string
	userFile          string
	numDays           int
	dryRun            bool
)

var rootCmd = &cobra.Command{
	Use:   "standup-snitch",
	Short: "Report which tracked users have not posted in a Slack channel",
	Long: `Fetch the recent history of a Slack channel, note which tracked
users posted within the lookback window, and print a report calling
out the users who did not.

The report always prints to stdout. Without --dry_run the tool also
attempts to publish the report to the output channel; publishing is
disabled unless SNITCH_ENABLE_POSTING is set, so that a run can never
post by accident.`,
	Run: run,
}

func init() {
	// Load .env if present (for SNITCH_* settings)
	_ = godotenv.Load()

	flags := rootCmd.Flags()
	flags.StringVarP(&tokenFile, "token_file", "t", "", "file with API token")
	flags.StringVarP(&inputChannelFile, "input_channel_file", "i", "", "file with Slack channel to monitor")
	flags.StringVarP(&outputChannelFile, "output_channel_file", "o", "", "file with Slack channel to write to")
	flags.StringVarP(&userFile, "user_file", "u", "", "file with user list")
	flags.IntVarP(&numDays, "num_days", "d", 10, "number of days over which to look back")
	flags.BoolVarP(&dryRun, "dry_run", "r", false, "print the report without attempting to publish it")
}

func run(cmd *cobra.Command, args []string) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	settings := config.LoadSettings()

	// Configuration errors are fatal before any network call.
	token, err := config.LoadToken(tokenFile)
	if err != nil {
		logger.Fatal("Failed to load token", zap.Error(err))
	}

	inputChannel, err := config.LoadChannel(inputChannelFile)
	if err != nil {
		logger.Fatal("Failed to load input channel", zap.Error(err))
	}

	outputChannel, err := config.LoadChannel(outputChannelFile)
	if err != nil {
		logger.Fatal("Failed to load output channel", zap.Error(err))
	}

	roster, err := config.LoadRoster(userFile)
	if err != nil {
		logger.Fatal("Failed to load user roster", zap.Error(err))
	}

	client := slackclient.NewClient(token, settings, logger)

	oldest := slackclient.Cutoff(time.Now(), numDays)
	logger.Info("Looking at channel history",
		zap.String("channel_name", inputChannel.Name),
		zap.String("channel_id", inputChannel.ID),
		zap.Int("days", numDays),
		zap.Float64("oldest", oldest))

	ctx := context.Background()
	messages, err := client.FetchHistory(ctx, inputChannel, oldest)
	if err != nil {
		logger.Fatal("Failed to fetch channel history", zap.Error(err))
	}

	presence := report.Aggregate(messages, roster)

	fmt.Println()
	fmt.Print(report.Ranking(messages, roster))
	fmt.Println()

	introduction := report.Introduction(inputChannel, numDays)
	fullReport := report.Render(introduction, report.Conclusion(presence, roster))
	fmt.Println(fullReport)

	if dryRun {
		return
	}

	// Published reports use native Slack mentions so absent users are
	// pinged directly.
	slackReport := report.Render(introduction, report.SlackConclusion(presence, roster))
	if err := client.PostReport(ctx, outputChannel, slackReport); err != nil {
		logger.Fatal("Failed to post report",
			zap.String("channel_name", outputChannel.Name),
			zap.Error(err))
	}

	fmt.Printf("Report posted to #%s\n", outputChannel.Name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
