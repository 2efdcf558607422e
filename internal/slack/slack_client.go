package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"standupsnitch/internal/commontypes"
	"standupsnitch/internal/config"
)

// ErrPostingDisabled is returned by PostReport when publishing has not
// been explicitly enabled. The guard prevents accidental production
// posts and must stay on unless SNITCH_ENABLE_POSTING is set.
var ErrPostingDisabled = errors.New("posting to Slack is disabled")

// historyPageLimit is the largest page conversations.history allows.
// The tool reads a single page, so messages beyond this horizon are not
// retrieved.
const historyPageLimit = 1000

// Client wraps the Slack Web API for history reads and guarded posts.
type Client struct {
	api            *slack.Client
	logger         *zap.Logger
	dumpPath       string
	botName        string
	postingEnabled bool
}

// NewClient builds a Client for the given token. Extra slack.Options
// are appended after the defaults, so tests can redirect the API URL.
func NewClient(token string, settings config.Settings, logger *zap.Logger, extra ...slack.Option) *Client {
	opts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	opts = append(opts, extra...)

	return &Client{
		api:            slack.New(token, opts...),
		logger:         logger,
		dumpPath:       settings.HistoryDumpPath,
		botName:        settings.BotName,
		postingEnabled: settings.EnablePosting,
	}
}

// Cutoff returns now minus the lookback window, as fractional seconds
// since the Unix epoch, which is what conversations.history expects in
// its oldest parameter.
func Cutoff(now time.Time, days int) float64 {
	oldest := now.Add(-time.Duration(days) * 24 * time.Hour)
	return float64(oldest.UnixNano()) / 1e9
}

// FetchHistory issues a single conversations.history request for
// messages newer than oldest and filters the response down to ordinary
// messages that carry both a user id and a timestamp. The raw response
// is dumped to the configured path as a debugging aid; dump failures
// are logged and never abort the run.
func (c *Client) FetchHistory(ctx context.Context, channel config.Channel, oldest float64) ([]commontypes.Message, error) {
	params := &slack.GetConversationHistoryParameters{
		ChannelID: channel.ID,
		Oldest:    fmt.Sprintf("%.6f", oldest),
		Limit:     historyPageLimit,
	}

	history, err := c.api.GetConversationHistoryContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("getting history for #%s: %w", channel.Name, err)
	}

	if c.dumpPath != "" {
		if err := dumpJSON(c.dumpPath, history); err != nil {
			c.logger.Warn("Failed to write history dump",
				zap.String("path", c.dumpPath),
				zap.Error(err))
		}
	}

	var messages []commontypes.Message
	skipped := 0
	for _, msg := range history.Messages {
		if msg.Type != "message" || msg.User == "" || msg.Timestamp == "" {
			skipped++
			continue
		}
		ts, err := strconv.ParseFloat(msg.Timestamp, 64)
		if err != nil {
			skipped++
			continue
		}
		messages = append(messages, commontypes.Message{
			UserID:    msg.User,
			Timestamp: ts,
		})
	}

	c.logger.Info("Fetched channel history",
		zap.String("channel_name", channel.Name),
		zap.String("channel_id", channel.ID),
		zap.Int("total_messages", len(history.Messages)),
		zap.Int("skipped", skipped),
		zap.Int("processed_messages", len(messages)))

	return messages, nil
}

// PostReport publishes the report text to a channel under the
// configured bot username. Unless posting has been explicitly enabled
// it returns ErrPostingDisabled before any network I/O.
func (c *Client) PostReport(ctx context.Context, channel config.Channel, text string) error {
	if !c.postingEnabled {
		return fmt.Errorf("refusing to post to #%s: %w", channel.Name, ErrPostingDisabled)
	}

	_, _, err := c.api.PostMessageContext(ctx, channel.ID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionUsername(c.botName),
	)
	if err != nil {
		return fmt.Errorf("posting report to #%s: %w", channel.Name, err)
	}

	c.logger.Info("Posted report", zap.String("channel_name", channel.Name))
	return nil
}

// dumpJSON writes v as indented JSON. Round-tripping through a generic
// value sorts object keys, which keeps the dump stable for human
// diffing between runs.
func dumpJSON(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(generic, "", "    ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, pretty, 0644)
}
