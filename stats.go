package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/ingest"
)

// PrintStatistics writes the performance record and instruction mix.
func PrintStatistics(w io.Writer, stats *core.Statistics) {
	if stats == nil {
		fmt.Fprintln(w, "No stats available")
		return
	}

	fmt.Fprintln(w, "=== Performance Statistics ===")
	fmt.Fprintf(w, "Total Cycles: %d\n", stats.TotalCycles)
	fmt.Fprintf(w, "Total Instructions: %d\n", stats.TotalInstructions)
	fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI)
	fmt.Fprintf(w, "Stalls: %d (data hazards %d, control hazards %d)\n",
		stats.StallCount, stats.StallsDataHazards, stats.StallsControlHazards)
	fmt.Fprintf(w, "Hazards: data %d, control %d\n", stats.DataHazards, stats.ControlHazards)
	fmt.Fprintf(w, "Branch Mispredictions: %d\n", stats.BranchMispredictions)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Instruction Mix ===")
	for _, entry := range stats.InstructionMix() {
		fmt.Fprintf(w, "%s: %d (%.1f%%)\n", entry.Name, entry.Count, entry.Share*100)
	}

	if len(stats.Extra) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Other ===")
		keys := lo.Keys(stats.Extra)
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %v\n", k, stats.Extra[k])
		}
	}
}

// PrintTraceSummary writes a one-screen overview of an event dataset.
func PrintTraceSummary(w io.Writer, ds *ingest.Dataset) {
	if ds == nil || ds.Trace == nil {
		fmt.Fprintln(w, "No trace available")
		return
	}
	s := summarize(ds)
	fmt.Fprintf(w, "=== Trace %s ===\n", s.Stream)
	fmt.Fprintf(w, "Dataset: %s (generation %d)\n", s.DatasetID, s.Generation)
	if s.Cycles > 0 {
		fmt.Fprintf(w, "Cycles: %d (%d..%d)\n", s.Cycles, s.FirstCycle, s.LastCycle)
	} else {
		fmt.Fprintln(w, "Cycles: 0")
	}
	fmt.Fprintf(w, "Stage events: %d, stalls: %d\n", s.Events, s.Stalls)
	fmt.Fprintf(w, "Max instruction: %d\n", s.MaxInstruction)
	fmt.Fprintf(w, "Stages: %s\n", strings.Join(s.Stages, ", "))
	if s.HasSnapshots {
		fmt.Fprintln(w, "Register/memory snapshots: yes")
	}
}
