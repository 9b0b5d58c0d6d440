package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/beckworth/redoubt/internal/game"
)

type runStats struct {
	runIndex int
	seed     int64

	over    bool
	winner  int
	endTick int

	firstDeathTick    int
	firstBarracksTick int
	firstUpgradeTick  int

	final game.MatchReport
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var seats int
	var copyOut bool

	flag.IntVar(&runs, "runs", 5, "number of headless bot matches")
	flag.IntVar(&ticks, "ticks", 40000, "tick budget per match")
	flag.Int64Var(&seedBase, "seed-base", 42, "map seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.IntVar(&seats, "seats", 2, "bot seats per match (2-4)")
	flag.BoolVar(&copyOut, "copy", false, "copy the report to the clipboard")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	if seats < 2 || seats > 4 {
		fmt.Println("error: -seats must be 2-4")
		return
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== Headless Match Report ===\n")
	fmt.Fprintf(&out, "runs=%d ticks=%d seats=%d seed_base=%d seed_step=%d\n\n", runs, ticks, seats, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats := runMatch(i+1, seed, ticks, seats)
		all = append(all, stats)
		printRun(&out, stats)
	}
	printAggregate(&out, all)

	fmt.Print(out.String())
	if copyOut {
		if err := clipboard.WriteAll(out.String()); err != nil {
			fmt.Printf("clipboard copy failed: %v\n", err)
		} else {
			fmt.Println("(report copied to clipboard)")
		}
	}
}

func runMatch(runIndex int, seed int64, ticks, seats int) runStats {
	names := []string{"crimson", "cobalt", "amber", "viridian"}
	var roster []game.PlayerInfo
	for s := 0; s < seats; s++ {
		roster = append(roster, game.PlayerInfo{ID: s + 1, Name: names[s], Faction: "legion", Bot: true})
	}
	eng := game.New(game.MatchConfig{
		MatchID:        fmt.Sprintf("headless-%d", runIndex),
		Seed:           seed,
		Players:        roster,
		ReportInterval: 1200,
	})

	rs := runStats{runIndex: runIndex, seed: seed, winner: -1}
	for t := 0; t < ticks; t++ {
		if ev := eng.StepTick(); ev != nil {
			rs.over = true
			rs.winner = ev.WinnerID
			break
		}
	}

	entries := eng.Log().Entries()
	rs.firstDeathTick = firstTick(entries, "combat", "death")
	rs.firstBarracksTick = firstBuildComplete(entries, game.EntityBarracks)
	rs.firstUpgradeTick = firstTick(entries, "command", "upgrade")
	rs.final = eng.Report()
	rs.endTick = rs.final.Tick
	return rs
}

// firstTick returns the tick of the first log entry matching category and
// key, or -1.
func firstTick(entries []game.SimLogEntry, category, key string) int {
	for _, e := range entries {
		if e.Category == category && e.Key == key {
			return e.Tick
		}
	}
	return -1
}

func firstBuildComplete(entries []game.SimLogEntry, t game.EntityType) int {
	for _, e := range entries {
		if e.Category == "economy" && e.Key == "build_complete" && e.Value == t.String() {
			return e.Tick
		}
	}
	return -1
}

func printRun(out *strings.Builder, rs runStats) {
	fmt.Fprintf(out, "--- run %d (seed %d) ---\n", rs.runIndex, rs.seed)
	if rs.over {
		fmt.Fprintf(out, "decided at tick %d, winner p%d\n", rs.endTick, rs.winner)
	} else {
		fmt.Fprintf(out, "undecided after %d ticks\n", rs.endTick)
	}
	fmt.Fprintf(out, "first death %s  first barracks %s  first upgrade %s\n",
		tickLabel(rs.firstDeathTick), tickLabel(rs.firstBarracksTick), tickLabel(rs.firstUpgradeTick))
	out.WriteString(rs.final.Format())
	out.WriteByte('\n')
}

func printAggregate(out *strings.Builder, all []runStats) {
	wins := map[int]int{}
	decided := 0
	totalMined := 0
	totalTicks := 0
	for _, rs := range all {
		if rs.over {
			decided++
			wins[rs.winner]++
			totalTicks += rs.endTick
		}
		totalMined += rs.final.Mined
	}

	fmt.Fprintf(out, "=== Aggregate (%d runs) ===\n", len(all))
	fmt.Fprintf(out, "decided: %d/%d\n", decided, len(all))
	for seat := 1; seat <= 4; seat++ {
		if wins[seat] > 0 {
			fmt.Fprintf(out, "  p%d wins: %d\n", seat, wins[seat])
		}
	}
	if decided > 0 {
		fmt.Fprintf(out, "avg decision tick: %.0f\n", float64(totalTicks)/float64(decided))
	}
	fmt.Fprintf(out, "avg gold mined per run: %.0f\n", float64(totalMined)/float64(len(all)))
}

func tickLabel(t int) string {
	if t < 0 {
		return "never"
	}
	return fmt.Sprintf("T=%d", t)
}
