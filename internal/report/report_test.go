package report

import (
	"reflect"
	"testing"

	"standupsnitch/internal/commontypes"
	"standupsnitch/internal/config"
)

func testRoster() config.Roster {
	return config.Roster{
		Users: map[string]config.User{
			"U1": {ID: "U1", Name: "alice", RealName: "Alice"},
			"U2": {ID: "U2", Name: "bob", RealName: "Bob"},
		},
		IDs: []string{"U1", "U2"},
	}
}

func msg(user string, ts float64) commontypes.Message {
	return commontypes.Message{UserID: user, Timestamp: ts}
}

func TestAggregate(t *testing.T) {
	roster := testRoster()

	t.Run("domain equals the roster key set", func(t *testing.T) {
		presence := Aggregate(nil, roster)
		if len(presence) != len(roster.Users) {
			t.Fatalf("presence has %d entries, want %d", len(presence), len(roster.Users))
		}
		for id := range roster.Users {
			if _, ok := presence[id]; !ok {
				t.Errorf("presence missing roster user %s", id)
			}
		}
	})

	t.Run("no messages means everyone absent", func(t *testing.T) {
		presence := Aggregate(nil, roster)
		for id, present := range presence {
			if present {
				t.Errorf("presence[%s] = true, want false", id)
			}
		}
	})

	t.Run("one message marks the poster present", func(t *testing.T) {
		presence := Aggregate([]commontypes.Message{msg("U1", 1700000000)}, roster)
		if !presence["U1"] {
			t.Error("presence[U1] = false, want true")
		}
		if presence["U2"] {
			t.Error("presence[U2] = true, want false")
		}
	})

	t.Run("untracked posters are ignored", func(t *testing.T) {
		presence := Aggregate([]commontypes.Message{msg("U999", 1700000000)}, roster)
		if len(presence) != 2 {
			t.Errorf("presence has %d entries, want 2", len(presence))
		}
		if _, ok := presence["U999"]; ok {
			t.Error("presence contains untracked user U999")
		}
	})

	t.Run("message order does not change the result", func(t *testing.T) {
		forward := []commontypes.Message{
			msg("U1", 1700000000), msg("U2", 1700000100), msg("U1", 1700000200),
		}
		backward := []commontypes.Message{
			msg("U1", 1700000200), msg("U2", 1700000100), msg("U1", 1700000000),
		}
		if !reflect.DeepEqual(Aggregate(forward, roster), Aggregate(backward, roster)) {
			t.Error("aggregation depends on message order")
		}
	})
}

func TestIntroduction(t *testing.T) {
	channel := config.Channel{ID: "C111", Name: "standup"}
	got := Introduction(channel, 7)
	want := "Who's NOT present in the last 7 days on #standup?"
	if got != want {
		t.Errorf("Introduction() = %q, want %q", got, want)
	}
}

func TestConclusion(t *testing.T) {
	roster := testRoster()

	t.Run("congratulates when everyone posted", func(t *testing.T) {
		presence := Presence{"U1": true, "U2": true}
		if got := Conclusion(presence, roster); got != "Go team!" {
			t.Errorf("Conclusion() = %q, want %q", got, "Go team!")
		}
	})

	t.Run("lists a single absent user", func(t *testing.T) {
		presence := Presence{"U1": true, "U2": false}
		if got := Conclusion(presence, roster); got != "Bob (bob)" {
			t.Errorf("Conclusion() = %q, want %q", got, "Bob (bob)")
		}
	})

	t.Run("joins multiple absentees in roster order", func(t *testing.T) {
		presence := Presence{"U1": false, "U2": false}
		want := "Alice (alice), \nBob (bob)"
		if got := Conclusion(presence, roster); got != want {
			t.Errorf("Conclusion() = %q, want %q", got, want)
		}
	})
}

func TestSlackConclusion(t *testing.T) {
	roster := testRoster()
	presence := Presence{"U1": false, "U2": true}
	want := "<@U1|alice>"
	if got := SlackConclusion(presence, roster); got != want {
		t.Errorf("SlackConclusion() = %q, want %q", got, want)
	}
}

func TestSlackTags(t *testing.T) {
	user := config.User{ID: "U1", Name: "alice", RealName: "Alice"}
	if got := SlackUserTag(user); got != "<@U1|alice>" {
		t.Errorf("SlackUserTag() = %q, want %q", got, "<@U1|alice>")
	}
	channel := config.Channel{ID: "C111", Name: "standup"}
	if got := SlackChannelTag(channel); got != "<#C111|standup>" {
		t.Errorf("SlackChannelTag() = %q, want %q", got, "<#C111|standup>")
	}
}

func TestRender(t *testing.T) {
	got := Render("intro line", "conclusion block")
	if got != "intro line\nconclusion block" {
		t.Errorf("Render() = %q", got)
	}
}

func TestActivityCounts(t *testing.T) {
	t.Run("sorts by descending count", func(t *testing.T) {
		messages := []commontypes.Message{
			msg("U1", 1), msg("U2", 2), msg("U2", 3), msg("U2", 4), msg("U1", 5),
		}
		counts := ActivityCounts(messages)
		want := []ActivityCount{{UserID: "U2", Count: 3}, {UserID: "U1", Count: 2}}
		if !reflect.DeepEqual(counts, want) {
			t.Errorf("ActivityCounts() = %+v, want %+v", counts, want)
		}
	})

	t.Run("breaks ties by first appearance", func(t *testing.T) {
		messages := []commontypes.Message{
			msg("U2", 1), msg("U1", 2), msg("U2", 3), msg("U1", 4),
		}
		counts := ActivityCounts(messages)
		if counts[0].UserID != "U2" || counts[1].UserID != "U1" {
			t.Errorf("ActivityCounts() order = %+v, want U2 before U1", counts)
		}
	})
}

func TestRanking(t *testing.T) {
	roster := testRoster()
	messages := []commontypes.Message{
		msg("U2", 1), msg("U2", 2), msg("U1", 3), msg("U999", 4),
	}
	got := Ranking(messages, roster)
	want := "MOST ACTIVE: (for debug purposes)\nBob (bob): 2\nAlice (alice): 1\n"
	if got != want {
		t.Errorf("Ranking() = %q, want %q", got, want)
	}
}

func TestFullReport(t *testing.T) {
	t.Run("absent user is called out", func(t *testing.T) {
		roster := testRoster()
		channel := config.Channel{ID: "C111", Name: "standup"}
		messages := []commontypes.Message{msg("U1", 1700000000)}

		presence := Aggregate(messages, roster)
		got := Render(Introduction(channel, 10), Conclusion(presence, roster))
		want := "Who's NOT present in the last 10 days on #standup?\nBob (bob)"
		if got != want {
			t.Errorf("report = %q, want %q", got, want)
		}
	})

	t.Run("everyone present gets the congratulation", func(t *testing.T) {
		roster := config.Roster{
			Users: map[string]config.User{"U1": {ID: "U1", Name: "alice", RealName: "Alice"}},
			IDs:   []string{"U1"},
		}
		channel := config.Channel{ID: "C111", Name: "standup"}
		messages := []commontypes.Message{msg("U1", 1700000000)}

		presence := Aggregate(messages, roster)
		got := Render(Introduction(channel, 10), Conclusion(presence, roster))
		want := "Who's NOT present in the last 10 days on #standup?\nGo team!"
		if got != want {
			t.Errorf("report = %q, want %q", got, want)
		}
	})
}
