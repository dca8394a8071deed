package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/sequence"
	"github.com/JuhQ/MongoHelper/autoinc/stats"
	"github.com/JuhQ/MongoHelper/autoinc/util/request_id"
)

type BenchmarkOptions struct {
	name                   *string
	concurrency            *int
	numberOfValues         *int
	config                 *string
	metricsIp              *string
	metricsHttpPort        *int
	metricsAddress         *string
	metricsIntervalSeconds *int
}

var (
	bo BenchmarkOptions
)

func init() {
	cmdBenchmark.Run = runBenchmark // break init cycle
	cmdBenchmark.IsDebug = cmdBenchmark.Flag.Bool("debug", false, "verbose debug information")
	bo.name = cmdBenchmark.Flag.String("name", "benchmark", "sequence name to allocate from")
	bo.concurrency = cmdBenchmark.Flag.Int("c", 16, "number of concurrent allocators")
	bo.numberOfValues = cmdBenchmark.Flag.Int("n", 1000, "number of values to allocate in total")
	bo.config = cmdBenchmark.Flag.String("config", "sequence", "configuration name, or path to a .toml file")
	bo.metricsIp = cmdBenchmark.Flag.String("metricsIp", "", "metrics listen ip")
	bo.metricsHttpPort = cmdBenchmark.Flag.Int("metricsPort", 0, "Prometheus metrics listen port")
	bo.metricsAddress = cmdBenchmark.Flag.String("metrics.address", "", "Prometheus push gateway address")
	bo.metricsIntervalSeconds = cmdBenchmark.Flag.Int("metrics.intervalSeconds", 15, "Prometheus push interval in seconds")
}

var cmdBenchmark = &Command{
	UsageLine: "benchmark -name=benchmark -c=16 -n=1000",
	Short:     "benchmark concurrent allocations against the configured store",
	Long: `benchmark allocates values from one sequence with many concurrent allocators.

  Every allocator is independent, like separate processes sharing the store,
  so the store's unique index is the only coordination between them.
  After the run, the values are checked for duplicates.

  Allocation rate, latency percentiles and retries are printed.
  Use -metricsPort to watch the Prometheus metrics while it runs.

  `,
}

type benchmarkResult struct {
	values    []int64
	latencies []time.Duration
	failed    int
	taken     time.Duration
}

func runBenchmark(cmd *Command, args []string) bool {
	if *bo.concurrency < 1 || *bo.numberOfValues < 1 {
		return false
	}

	config, store, err := loadStore(*bo.config)
	if err != nil {
		glog.Errorf("load sequence store: %v", err)
		return false
	}
	defer store.Shutdown()
	allocator, err := sequence.NewAllocatorFromConfiguration(store, config)
	if err != nil {
		glog.Errorf("load sequence store: %v", err)
		return false
	}
	// validated above
	newAllocator := func() *sequence.Allocator {
		a, _ := sequence.NewAllocatorFromConfiguration(store, config)
		return a
	}

	go stats.StartMetricsServer(*bo.metricsIp, *bo.metricsHttpPort)
	go stats.LoopPushingMetric("benchmark", stats.SourceName(uint32(*bo.metricsHttpPort)), *bo.metricsAddress, *bo.metricsIntervalSeconds)

	fmt.Printf("Allocating %s values of %q with %d allocators on %s/%s\n",
		humanize.Comma(int64(*bo.numberOfValues)), *bo.name, *bo.concurrency, store.GetName(), allocator.Collection())

	result, err := benchmarkAllocator(context.Background(), newAllocator, *bo.name, *bo.concurrency, *bo.numberOfValues)
	if err != nil {
		glog.Errorf("benchmark %s: %v", *bo.name, err)
		ExitStatus = 1
		return true
	}
	result.printStats(os.Stdout, *bo.concurrency)

	if duplicates := result.duplicates(); len(duplicates) > 0 {
		glog.Errorf("benchmark %s: %d values handed out more than once, e.g. %d", *bo.name, len(duplicates), duplicates[0])
		ExitStatus = 1
	}
	return true
}

// benchmarkAllocator allocates n values from name with concurrency workers,
// each with its own allocator from newAllocator.
// Failed allocations are counted, not returned.
func benchmarkAllocator(ctx context.Context, newAllocator func() *sequence.Allocator, name string, concurrency, n int) (*benchmarkResult, error) {

	idChan := make(chan int)
	result := &benchmarkResult{}
	var mu sync.Mutex

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(idChan)
		for i := 0; i < n; i++ {
			select {
			case idChan <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < concurrency; i++ {
		allocator := newAllocator()
		g.Go(func() error {
			for range idChan {
				reqCtx := request_id.New(gctx)
				started := time.Now()
				value, err := allocator.Next(reqCtx, name, 0)
				latency := time.Since(started)

				mu.Lock()
				if err != nil {
					result.failed++
				} else {
					result.values = append(result.values, value)
					result.latencies = append(result.latencies, latency)
				}
				mu.Unlock()

				if err != nil {
					glog.V(1).InfofCtx(reqCtx, "allocate %s: %v", name, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.taken = time.Since(start)
	return result, nil
}

// duplicates returns the values that were handed out more than once.
func (r *benchmarkResult) duplicates() (duplicates []int64) {
	seen := make(map[int64]bool, len(r.values))
	for _, v := range r.values {
		if seen[v] {
			duplicates = append(duplicates, v)
		}
		seen[v] = true
	}
	return
}

var percentages = []int{50, 66, 75, 80, 90, 95, 98, 99, 100}

func (r *benchmarkResult) printStats(w io.Writer, concurrency int) {
	completed := len(r.values)
	seconds := r.taken.Seconds()

	fmt.Fprintf(w, "\nConcurrency Level:      %d\n", concurrency)
	fmt.Fprintf(w, "Time taken for tests:   %.3f seconds\n", seconds)
	fmt.Fprintf(w, "Completed allocations:  %s\n", humanize.Comma(int64(completed)))
	fmt.Fprintf(w, "Failed allocations:     %s\n", humanize.Comma(int64(r.failed)))
	if seconds > 0 {
		fmt.Fprintf(w, "Allocations per second: %s [#/sec]\n", humanize.CommafWithDigits(float64(completed)/seconds, 2))
	}
	if completed == 0 {
		return
	}

	sorted := append([]int64(nil), r.values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	gaps := sorted[len(sorted)-1] - sorted[0] + 1 - int64(completed)
	fmt.Fprintf(w, "Value range:            %d - %d, %s skipped\n", sorted[0], sorted[len(sorted)-1], humanize.Comma(gaps))

	latencies := append([]time.Duration(nil), r.latencies...)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	fmt.Fprintf(w, "\nPercentage of the allocations served within a certain time (ms)\n")
	for _, p := range percentages {
		index := len(latencies)*p/100 - 1
		if index < 0 {
			index = 0
		}
		fmt.Fprintf(w, "  %3d%%    %5.1f ms\n", p, float64(latencies[index])/float64(time.Millisecond))
	}
}
