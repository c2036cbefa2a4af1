package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/event"
)

type DeadLettersCommand struct{}

func (c *DeadLettersCommand) Name() string {
	return "dead-letters"
}

func (c *DeadLettersCommand) Description() string {
	return "Summarize undelivered loyalty events [path]"
}

func (c *DeadLettersCommand) Run(args []string) error {
	path := getEnv("EVENT_DEAD_LETTER_PATH", event.DefaultDeadLetterPath)
	if len(args) > 0 {
		path = args[0]
	}
	if err := checkHostile(path); err != nil {
		return err
	}

	PrintHeader(fmt.Sprintf("Dead Letters (%s)", path))

	entries, skipped, err := event.ReadDeadLetters(path)
	if err != nil {
		return err
	}
	if skipped > 0 {
		PrintWarning("%d malformed lines skipped", skipped)
	}
	if len(entries) == 0 {
		PrintSuccess("No undelivered events")
		return nil
	}

	s := summarizeDeadLetters(entries)
	PrintWarning("%d undelivered events for %d members between %s and %s",
		len(entries), s.users, s.first.Format(time.RFC3339), s.last.Format(time.RFC3339))
	for _, tc := range s.byType {
		PrintInfo("  %-28s %d", tc.eventType, tc.count)
	}
	return nil
}

type typeCount struct {
	eventType event.Type
	count     int
}

type deadLetterSummary struct {
	byType      []typeCount
	users       int
	first, last time.Time
}

// summarizeDeadLetters counts entries per event type, busiest first
func summarizeDeadLetters(entries []event.DeadLetterEntry) deadLetterSummary {
	var s deadLetterSummary
	counts := make(map[event.Type]int)
	users := make(map[string]struct{})

	for i, e := range entries {
		counts[e.Event.Type]++
		if id, ok := e.Event.GetMetadataValue("user_id").(string); ok && id != "" {
			users[id] = struct{}{}
		}
		if i == 0 || e.Timestamp.Before(s.first) {
			s.first = e.Timestamp
		}
		if e.Timestamp.After(s.last) {
			s.last = e.Timestamp
		}
	}

	for t, n := range counts {
		s.byType = append(s.byType, typeCount{eventType: t, count: n})
	}
	slices.SortFunc(s.byType, func(a, b typeCount) int {
		if a.count != b.count {
			return b.count - a.count
		}
		if a.eventType < b.eventType {
			return -1
		}
		if a.eventType > b.eventType {
			return 1
		}
		return 0
	})
	s.users = len(users)
	return s
}
