package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a match.
type SimLogEntry struct {
	Tick     int
	Player   int     // owning player id, or -1 for global events
	Category string  // combat, economy, command, engine
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] p1  economy  deposit  10
func (e SimLogEntry) String() string {
	who := "--"
	if e.Player >= 0 {
		who = fmt.Sprintf("p%d", e.Player)
	}
	return fmt.Sprintf("[T=%04d] %-4s %-9s %-18s %s",
		e.Tick, who, e.Category, e.Key, e.Value)
}

// SimLog collects structured match events. It is unbounded and
// machine-readable: tests and the headless report both consume it.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. If verbose is true, per-tick detail entries are
// also recorded.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick, player int, category, key, value string, numVal float64) {
	if sl == nil {
		return
	}
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Player:   player,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick, player int, category, key, value string, numVal float64) {
	if sl == nil || !sl.verbose {
		return
	}
	sl.Add(tick, player, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	if sl == nil {
		return nil
	}
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterPlayer returns entries for a specific player id.
func (sl *SimLog) FilterPlayer(player int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.Entries() {
		if e.Player == player {
			out = append(out, e)
		}
	}
	return out
}

// Dump renders every entry as one line per event.
func (sl *SimLog) Dump() string {
	var b strings.Builder
	for _, e := range sl.Entries() {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
