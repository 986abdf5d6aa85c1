// Command benchmark drives an Index through a synthetic append workload
// and reports latency percentiles for each operation, the logloglog
// analogue of the teacher's storage-engine benchmark harness (it traded
// "compare engines against each other" for "characterize the one
// structure this repo builds").
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/intellect4all/logloglog/common/benchmark"
	"github.com/intellect4all/logloglog/index"
)

func main() {
	lines := flag.Int("lines", 200000, "number of lines to append")
	width := flag.Uint("width", 80, "terminal width for Locate queries")
	queries := flag.Int("queries", 20000, "number of Locate and Get queries to sample")
	flag.Parse()

	dir, err := os.MkdirTemp("", "logloglog-benchmark-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkdtemp: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	srcPath := dir + "/source.log"
	if err := os.WriteFile(srcPath, nil, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write source: %v\n", err)
		os.Exit(1)
	}

	cfg := index.DefaultConfig(srcPath)
	cfg.CacheDir = dir + "/cache"

	ix, err := index.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open index: %v\n", err)
		os.Exit(1)
	}
	defer ix.Close()

	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("logloglog benchmark")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("lines=%d width=%d queries=%d\n\n", *lines, *width, *queries)

	appendLatency := benchmark.NewLatencyHistogram()
	rng := rand.New(rand.NewSource(1))

	fmt.Println("[append]")
	appendStart := time.Now()
	for i := 0; i < *lines; i++ {
		w := 1 + rng.Intn(200)
		text := strings.Repeat("x", w)

		start := time.Now()
		if err := ix.Append(text); err != nil {
			fmt.Fprintf(os.Stderr, "append #%d: %v\n", i, err)
			os.Exit(1)
		}
		appendLatency.Record(time.Since(start))
	}
	appendElapsed := time.Since(appendStart)
	printLatency("append", appendLatency.Stats(), appendElapsed, *lines)

	total, err := ix.At(uint32(*width), 0, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "At: %v\n", err)
		os.Exit(1)
	}
	rowCount := total.Len()

	locateLatency := benchmark.NewLatencyHistogram()
	fmt.Println("\n[locate: row -> line]")
	locateStart := time.Now()
	for i := 0; i < *queries; i++ {
		row := uint64(rng.Int63n(int64(rowCount)))
		start := time.Now()
		if _, err := total.Get(row); err != nil {
			fmt.Fprintf(os.Stderr, "Get(%d): %v\n", row, err)
			os.Exit(1)
		}
		locateLatency.Record(time.Since(start))
	}
	printLatency("locate", locateLatency.Stats(), time.Since(locateStart), *queries)

	rowOfLatency := benchmark.NewLatencyHistogram()
	fmt.Println("\n[get: line -> text]")
	rowOfStart := time.Now()
	n := int(ix.Len())
	for i := 0; i < *queries; i++ {
		line := uint64(rng.Intn(n))
		start := time.Now()
		if _, err := ix.Get(line); err != nil {
			fmt.Fprintf(os.Stderr, "Get(%d): %v\n", line, err)
			os.Exit(1)
		}
		rowOfLatency.Record(time.Since(start))
	}
	printLatency("get", rowOfLatency.Stats(), time.Since(rowOfStart), *queries)

	stats := ix.Stats()
	fmt.Println("\n[tree shape]")
	fmt.Printf("  total lines: %d\n", stats.TotalLines)
	fmt.Printf("  tree height: %d\n", stats.TreeHeight)
	fmt.Printf("  node count:  %d\n", stats.NodeCount)
	fmt.Printf("  rows at width %d: %d\n", *width, rowCount)
}

func printLatency(op string, s benchmark.LatencyStats, elapsed time.Duration, n int) {
	fmt.Printf("  ops: %d  elapsed: %v  throughput: %.0f ops/sec\n", n, elapsed, float64(n)/elapsed.Seconds())
	fmt.Printf("  min: %v  mean: %v  p50: %v  p95: %v  p99: %v  max: %v\n",
		s.Min, s.Mean, s.P50, s.P95, s.P99, s.Max)
}
