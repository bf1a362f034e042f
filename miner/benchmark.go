package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ferrominer/block"
	"ferrominer/telemetry"
)

// benchPayloadSize is the size of the random payloads hashed in benchmark
// mode, picked close to a serialized template.
const benchPayloadSize = 255

// runBenchmark measures raw hash throughput for every thread count from 1
// up to maxThreads, independent of the job and connection machinery. Each
// thread hashes freshly randomized payloads in a tight loop.
func runBenchmark(maxThreads, iterations int) {
	fmt.Printf("%-10s | %-12s | %-16s | %-14s | %-13s\n",
		"Threads", "Total Time", "Total Iterations", "Time/Hash (ns)", "Hashrate")

	for threads := 1; threads <= maxThreads; threads++ {
		start := time.Now()

		var wg sync.WaitGroup
		for i := 0; i < threads; i++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ seed))
				payload := make([]byte, benchPayloadSize)
				for j := 0; j < iterations; j++ {
					rng.Read(payload)
					block.HashBytes(payload)
				}
			}(int64(i))
		}
		wg.Wait()

		elapsed := time.Since(start)
		total := threads * iterations
		rate := float64(total) / elapsed.Seconds()
		fmt.Printf("%-10d | %-12s | %-16d | %-14d | %-13s\n",
			threads, elapsed.Round(time.Millisecond), total,
			elapsed.Nanoseconds()/int64(total), telemetry.FormatHashrate(rate))
	}
}
