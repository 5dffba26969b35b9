package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
)

// Metrics
var (
	totalRequests uint64
	success2xx    uint64
	fail4xx       uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:3001", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "read", "Workload type: read | register | mixed")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 10 * time.Second}

	for time.Since(start) < duration {
		var resp *http.Response
		var err error

		switch pickOp() {
		case "register":
			payload := map[string]interface{}{
				"cropType":     "Rice",
				"quantityKg":   100 + rand.Intn(900),
				"basePriceINR": 1000 + rand.Intn(9000),
				"harvestDate":  time.Now().Unix(),
			}
			body, _ := json.Marshal(payload)
			resp, err = client.Post(targetURL+"/api/register-batch", "application/json", bytes.NewBuffer(body))
		default:
			resp, err = client.Get(targetURL + "/api/batches")
		}

		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			atomic.AddUint64(&success2xx, 1)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			atomic.AddUint64(&fail4xx, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func pickOp() string {
	switch workload {
	case "register":
		return "register"
	case "mixed":
		// Mostly reads; registration is a chain write and far slower.
		if rand.Float32() < 0.1 {
			return "register"
		}
	}
	return "read"
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	ok := atomic.LoadUint64(&success2xx)
	f4 := atomic.LoadUint64(&fail4xx)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()

	results := map[string]interface{}{
		"workload":       workload,
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_rps": tps,
		"success_2xx":    ok,
		"client_errors":  f4,
		"other_failures": fErr,
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))
}
