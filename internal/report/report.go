package report

import (
	"fmt"
	"sort"
	"strings"

	"standupsnitch/internal/commontypes"
	"standupsnitch/internal/config"
)

// Presence maps every tracked user id to whether that user posted at
// least once in the lookback window. Its key set always equals the
// roster's key set.
type Presence map[string]bool

// allPresent is the conclusion when nobody is absent.
const allPresent = "Go team!"

// Aggregate folds the message sequence into a presence map. Every
// roster user starts absent; any message from a tracked user marks them
// present. Messages from untracked users are silently ignored.
func Aggregate(messages []commontypes.Message, roster config.Roster) Presence {
	presence := make(Presence, len(roster.Users))
	for id := range roster.Users {
		presence[id] = false
	}

	for _, msg := range messages {
		if _, tracked := presence[msg.UserID]; tracked {
			presence[msg.UserID] = true
		}
	}

	return presence
}

// Introduction is the fixed opening line of the report.
func Introduction(channel config.Channel, days int) string {
	return fmt.Sprintf("Who's NOT present in the last %d days on #%s?", days, channel.Name)
}

// Conclusion either congratulates the team or lists the absent users in
// roster file order.
func Conclusion(presence Presence, roster config.Roster) string {
	return conclusion(presence, roster, FormatUserText)
}

// SlackConclusion is Conclusion with native Slack mentions, for the
// publish path.
func SlackConclusion(presence Presence, roster config.Roster) string {
	return conclusion(presence, roster, SlackUserTag)
}

func conclusion(presence Presence, roster config.Roster, format func(config.User) string) string {
	var absent []string
	for _, id := range roster.IDs {
		if !presence[id] {
			absent = append(absent, format(roster.Users[id]))
		}
	}

	if len(absent) == 0 {
		return allPresent
	}
	return strings.Join(absent, ", \n")
}

// Render assembles the final two-part report.
func Render(introduction, conclusion string) string {
	return introduction + "\n" + conclusion
}

// FormatUserText renders a user as "real_name (user_name)".
func FormatUserText(user config.User) string {
	return fmt.Sprintf("%s (%s)", user.RealName, user.Name)
}

// SlackUserTag renders a native Slack mention for a user.
func SlackUserTag(user config.User) string {
	return fmt.Sprintf("<@%s|%s>", user.ID, user.Name)
}

// SlackChannelTag renders a native Slack link for a channel.
func SlackChannelTag(channel config.Channel) string {
	return fmt.Sprintf("<#%s|%s>", channel.ID, channel.Name)
}

// ActivityCount is a per-user message tally for the debug ranking.
type ActivityCount struct {
	UserID string
	Count  int
}

// ActivityCounts tallies messages per user, ordered by descending count
// with ties broken by first appearance in the message sequence.
func ActivityCounts(messages []commontypes.Message) []ActivityCount {
	counts := make(map[string]int)
	var order []string
	for _, msg := range messages {
		if _, seen := counts[msg.UserID]; !seen {
			order = append(order, msg.UserID)
		}
		counts[msg.UserID]++
	}

	ranking := make([]ActivityCount, 0, len(order))
	for _, id := range order {
		ranking = append(ranking, ActivityCount{UserID: id, Count: counts[id]})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	return ranking
}

// Ranking renders the activity ranking for tracked users, one line per
// user. Operator-facing debug output, not part of the report proper.
func Ranking(messages []commontypes.Message, roster config.Roster) string {
	var sb strings.Builder
	sb.WriteString("MOST ACTIVE: (for debug purposes)\n")
	for _, entry := range ActivityCounts(messages) {
		user, tracked := roster.Users[entry.UserID]
		if !tracked {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %d\n", FormatUserText(user), entry.Count))
	}
	return sb.String()
}
