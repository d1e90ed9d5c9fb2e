package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"campussim/internal/eventlog"
	"campussim/internal/sim/schedule"
)

func main() {
	var (
		eventsDir = flag.String("events", "./data/events", "events dir containing events-*.jsonl.zst")
		kind      = flag.String("kind", "", "filter by event kind (activity_start, activity_end, activity_interrupt, principal_action)")
		actor     = flag.String("actor", "", "filter by actor name")
		room      = flag.String("room", "", "filter by room name")
		from      = flag.String("from", "", "only events at or after this HH:MM")
		to        = flag.String("to", "", "only events at or before this HH:MM")
		quiet     = flag.Bool("quiet", false, "suppress per-event lines, print only the summary")
	)
	flag.Parse()

	fromMin, toMin, err := parseWindow(*from, *to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	files, err := listEventFiles(*eventsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	counts := make(map[string]int)
	var total int
	for _, path := range files {
		if err := readFile(path, func(e eventlog.Event) {
			if *kind != "" && e.Kind != *kind {
				return
			}
			if *actor != "" && e.Actor != *actor {
				return
			}
			if *room != "" && e.Room != *room {
				return
			}
			if !inWindow(e.Timestamp, fromMin, toMin) {
				return
			}
			counts[e.Kind]++
			total++
			if !*quiet {
				printEvent(e)
			}
		}); err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Printf("%d events", total)
	for _, k := range kinds {
		fmt.Printf(" %s=%d", k, counts[k])
	}
	fmt.Println()
}

func parseWindow(from, to string) (int, int, error) {
	fromMin, toMin := -1, -1
	if from != "" {
		v, err := schedule.ParseHHMM(from)
		if err != nil {
			return 0, 0, fmt.Errorf("bad -from: %w", err)
		}
		fromMin = v
	}
	if to != "" {
		v, err := schedule.ParseHHMM(to)
		if err != nil {
			return 0, 0, fmt.Errorf("bad -to: %w", err)
		}
		toMin = v
	}
	return fromMin, toMin, nil
}

func inWindow(timestamp string, fromMin, toMin int) bool {
	if fromMin < 0 && toMin < 0 {
		return true
	}
	v, err := schedule.ParseHHMM(timestamp)
	if err != nil {
		return false
	}
	if fromMin >= 0 && v < fromMin {
		return false
	}
	if toMin >= 0 && v > toMin {
		return false
	}
	return true
}

func printEvent(e eventlog.Event) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-19s %-16s", e.Timestamp, e.Kind, e.Actor)
	if e.Activity != "" {
		fmt.Fprintf(&sb, " %s", e.Activity)
	}
	if e.Room != "" {
		fmt.Fprintf(&sb, " @%s", e.Room)
	}
	if len(e.State) > 0 {
		b, _ := json.Marshal(e.State)
		fmt.Fprintf(&sb, " %s", b)
	}
	fmt.Println(sb.String())
}

func listEventFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "events-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func readFile(path string, fn func(eventlog.Event)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var e eventlog.Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		fn(e)
	}
	return sc.Err()
}
