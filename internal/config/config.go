package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Channel identifies a Slack channel by API ID and human-readable name.
type Channel struct {
	ID   string
	Name string
}

// User is one tracked roster entry.
type User struct {
	ID       string
	Name     string
	RealName string
}

// Roster is the fixed set of users being monitored, independent of who
// actually posts. IDs preserves the row order of the user file so that
// report output is deterministic.
type Roster struct {
	Users map[string]User
	IDs   []string
}

// Settings holds runtime knobs read from the environment. Callers
// should run godotenv.Load() first so a local .env file is picked up.
type Settings struct {
	// HistoryDumpPath is where the raw history response is written for
	// offline inspection. Empty disables the dump.
	HistoryDumpPath string
	// BotName is the username reports are posted under.
	BotName string
	// EnablePosting allows PostReport to actually reach Slack. Off by
	// default so a run can never post by accident.
	EnablePosting bool
}

const (
	defaultHistoryDumpPath = "sensitive/channels.history.json"
	defaultBotName         = "standup_snitch"
)

// LoadSettings reads Settings from the environment, falling back to
// defaults for anything unset.
func LoadSettings() Settings {
	settings := Settings{
		HistoryDumpPath: defaultHistoryDumpPath,
		BotName:         defaultBotName,
	}

	if v, ok := os.LookupEnv("SNITCH_HISTORY_DUMP"); ok {
		settings.HistoryDumpPath = v
	}
	if v := os.Getenv("SNITCH_BOT_NAME"); v != "" {
		settings.BotName = v
	}
	if v := os.Getenv("SNITCH_ENABLE_POSTING"); v != "" {
		enabled, err := strconv.ParseBool(v)
		settings.EnablePosting = err == nil && enabled
	}

	return settings
}

// LoadToken reads the API token file; the entire trimmed contents are
// the credential.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}

	return token, nil
}

// LoadChannel reads a channel file (header row + data rows with
// channel_id and channel_name columns) and returns its first data row.
// Additional rows are ignored: a run targets exactly one channel.
func LoadChannel(path string) (Channel, error) {
	cols, rows, err := readTable(path, "channel_id", "channel_name")
	if err != nil {
		return Channel{}, err
	}
	if len(rows) == 0 {
		return Channel{}, fmt.Errorf("channel file %s has no data rows", path)
	}

	row := rows[0]
	return Channel{
		ID:   row[cols["channel_id"]],
		Name: row[cols["channel_name"]],
	}, nil
}

// LoadRoster reads the user file (header row + data rows with user_id,
// user_name and real_name columns). Every data row becomes a roster
// entry, in file order.
func LoadRoster(path string) (Roster, error) {
	cols, rows, err := readTable(path, "user_id", "user_name", "real_name")
	if err != nil {
		return Roster{}, err
	}

	roster := Roster{Users: make(map[string]User, len(rows))}
	for _, row := range rows {
		user := User{
			ID:       row[cols["user_id"]],
			Name:     row[cols["user_name"]],
			RealName: row[cols["real_name"]],
		}
		if _, seen := roster.Users[user.ID]; !seen {
			roster.IDs = append(roster.IDs, user.ID)
		}
		roster.Users[user.ID] = user
	}

	return roster, nil
}

// readTable parses a CSV file with a header row and checks that every
// required column is present. Returns the column index map and the data
// rows.
func readTable(path string, required ...string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s has no header row", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%s is missing required column %q", path, name)
		}
	}

	return cols, records[1:], nil
}
