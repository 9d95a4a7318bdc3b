// Command parsecheck replays saved page snapshots through the fare card
// parser. After the site ships a new bundle, edit the selector catalog
// and run this against the failure snapshots until every card parses
// again, without touching the live site.
//
//	go run ./scripts/parsecheck -dir snapshots
//	go run ./scripts/parsecheck snapshots/cairo-october-20260823-150405-00.html
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/farewatch/farewatch/domdrift"
	"github.com/farewatch/farewatch/models"
	"github.com/farewatch/farewatch/uber"
)

var (
	dir      = flag.String("dir", "snapshots", "Directory of saved page snapshots (*.html)")
	baseline = flag.String("baseline", "snapshots/dom.baseline", "DOM fingerprint baseline file")
)

func main() {
	flag.Parse()

	if err := uber.ValidateSelectors(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: selector catalog does not compile: %v\n", err)
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join(*dir, "*.html"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No snapshots found under %s\n", *dir)
		os.Exit(1)
	}

	base, haveBase := domdrift.NewBaseline(*baseline).Load()

	fmt.Println("=== Fare card parse check ===")
	fmt.Printf("Snapshots: %d\n", len(files))
	if haveBase {
		fmt.Printf("Baseline:  %s\n", *baseline)
	} else {
		fmt.Println("Baseline:  none (drift column disabled)")
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Snapshot\tRide\tEstimate\tFields\tDrift\tResult\n")
	fmt.Fprintf(w, "────────\t────\t────────\t──────\t─────\t──────\n")

	failures := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\tread error: %v\n", filepath.Base(path), err)
			failures++
			continue
		}
		raw := string(data)

		drift := "-"
		if haveBase {
			fp := domdrift.Fingerprint(raw)
			drift = fmt.Sprintf("%d (%s)", domdrift.Distance(base, fp), domdrift.Verdict(base, fp))
		}

		card, err := uber.ParseFareCard(raw)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%s\t%v\n", filepath.Base(path), drift, err)
			failures++
			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\tok\n",
			filepath.Base(path), card.RideName, card.Estimate, fieldTally(card), drift)
	}
	w.Flush()

	fmt.Println()
	if failures > 0 {
		fmt.Printf("%d of %d snapshots still fail to parse\n", failures, len(files))
		os.Exit(1)
	}
	fmt.Printf("All %d snapshots parse\n", len(files))
}

// fieldTally counts how many breakdown fields were actually present, as
// "found/total". A card can parse while every breakdown degrades to N/A;
// that still means the breakdown selectors rotted.
func fieldTally(card uber.FareCard) string {
	fields := []string{
		card.Estimate,
		card.BaseFare,
		card.MinimumFare,
		card.PlusPerMinute,
		card.PlusPerKilometer,
		card.WaitCharge,
	}
	found := 0
	for _, f := range fields {
		if f != models.FieldMissing && strings.TrimSpace(f) != "" {
			found++
		}
	}
	return fmt.Sprintf("%d/%d", found, len(fields))
}
