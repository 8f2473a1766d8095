package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/driftwatch/driftd/internal/baseline"
)

// Replays a CSV of historical samples through a local baseline registry
// and prints the score each sample would have received live. Useful for
// tuning window sizes and alert thresholds against real traffic.
//
// Expected CSV columns: signal,value,timestamp (RFC3339). A header row
// is detected and skipped automatically.
func main() {
	file := flag.String("file", "", "Path to CSV file with signal,value,timestamp rows")
	windowSize := flag.Int("window", 168, "Samples per rolling window")
	seasonality := flag.Int("seasonality", 24, "Hours per seasonality cycle")
	threshold := flag.Float64("threshold", 3.0, "|z-score| at or above this counts as an anomaly")
	quiet := flag.Bool("quiet", false, "Only print anomalies and the final summary")

	flag.Parse()

	if *file == "" {
		log.Fatal("Error: -file parameter is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Error opening file: %v\n", err)
	}
	defer f.Close()

	registry := baseline.NewRegistry(*windowSize, *seasonality)

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	var total, rejected, anomalies int
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Error reading CSV at line %d: %v\n", line+1, err)
		}
		line++

		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			if line == 1 {
				// Header row
				continue
			}
			fmt.Fprintf(os.Stderr, "line %d: invalid value %q, skipping\n", line, record[1])
			rejected++
			continue
		}

		ts, err := time.Parse(time.RFC3339, record[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: invalid timestamp %q, skipping\n", line, record[2])
			rejected++
			continue
		}

		signal := record[0]
		score, trend, err := registry.ObserveAndScore(signal, value, ts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v, skipping\n", line, err)
			rejected++
			continue
		}

		total++
		anomalous := math.Abs(score) >= *threshold
		if anomalous {
			anomalies++
		}

		if anomalous || !*quiet {
			marker := " "
			if anomalous {
				marker = "!"
			}
			fmt.Printf("%s %-30s %12.4f  score=%+.3f  trend=%s  %s\n",
				marker, signal, value, score, trend, ts.Format(time.RFC3339))
		}
	}

	fmt.Printf("\nReplayed %d samples (%d rejected), %d anomalies at |z| >= %.2f\n",
		total, rejected, anomalies, *threshold)

	// Final per-signal baseline summary
	fmt.Printf("\n%-30s %10s %12s %12s %s\n", "SIGNAL", "SAMPLES", "MEAN", "STDDEV", "TREND")
	for _, signal := range registry.Signals() {
		count, _ := registry.SampleCount(signal)
		trend, _ := registry.Trend(signal)
		stats, defined, _ := registry.Stats(signal)
		if !defined {
			fmt.Printf("%-30s %10d %12s %12s %s\n", signal, count, "-", "-", trend)
			continue
		}
		fmt.Printf("%-30s %10d %12.4f %12.4f %s\n", signal, count, stats.Mean, stats.StdDev, trend)
	}
}
