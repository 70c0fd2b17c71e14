package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/drivesafe-controller/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print dispatched actions")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	os.Exit(run(*fixturePath, *verbose))
}

func run(fixturePath string, verbose bool) int {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	res, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	fmt.Printf("fixture: %s\n\n", f.Description)
	printComparison(f, res)
	if verbose {
		printActions(res)
	}
	printSummary(res)

	if err := replay.Verify(f, res); err != nil {
		fmt.Fprintf(os.Stderr, "\nMISMATCH: %v\n", err)
		return 1
	}
	fmt.Println("\nall outcomes match")
	return 0
}

// #endregion main

// #region output

func printComparison(f *replay.Fixture, res replay.Result) {
	fmt.Printf("%-4s  %-15s  %-20s  %-20s  %s\n", "#", "Caller", "Expected", "Got", "Match")
	fmt.Printf("%-4s  %-15s  %-20s  %-20s  %s\n", "----", "---------------", "--------------------", "--------------------", "-----")

	n := len(res.Outcomes)
	if len(f.ExpectedOutcomes) > n {
		n = len(f.ExpectedOutcomes)
	}
	for i := 0; i < n; i++ {
		caller, expected, got, match := "-", "-", "-", "MISS"
		if i < len(f.ExpectedOutcomes) {
			caller = f.ExpectedOutcomes[i].Caller
			expected = f.ExpectedOutcomes[i].Status
		}
		if i < len(res.Outcomes) {
			if caller == "-" {
				caller = res.Outcomes[i].Caller
			}
			got = string(res.Outcomes[i].Status)
		}
		if i < len(f.ExpectedOutcomes) && i < len(res.Outcomes) &&
			f.ExpectedOutcomes[i].Matches(res.Outcomes[i]) {
			match = "ok"
		}
		fmt.Printf("%-4d  %-15s  %-20s  %-20s  %s\n", i+1, caller, expected, got, match)
	}
}

func printActions(res replay.Result) {
	fmt.Println("\ndispatched actions:")
	for i, a := range res.Actions {
		fmt.Printf("  %2d  %-14s  %-15s  %s\n", i+1, a.Kind, a.Number, a.Text)
	}
}

func printSummary(res replay.Result) {
	s := replay.Summarize(res)
	fmt.Printf("\ncalls=%d actions=%d trips=%d\n", s.TotalCalls, s.Actions, s.Trips)
	for status, count := range s.ByStatus {
		fmt.Printf("  %-20s %d\n", status, count)
	}
}

// #endregion output
