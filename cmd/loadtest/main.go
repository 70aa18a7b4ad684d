package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Netflix/go-env"
	"github.com/valyala/fasthttp"
)

type interestPayload struct {
	PropertyID string `json:"propertyId"`
}

type loadTestConfig struct {
	URL               string `env:"TARGET_URL,default=http://localhost:8080/api/buyer/interested-properties"`
	PropertyID        string `env:"PROPERTY_ID,required=true"`
	Tokens            string `env:"BUYER_TOKENS,required=true"`
	RequestsPerSecond int    `env:"REQUESTS_PER_SECOND,default=500"`
	DurationSeconds   int    `env:"DURATION_SECONDS,default=30"`
	ConcurrentWorkers int    `env:"CONCURRENT_WORKERS,default=100"`
}

type stats struct {
	successCount  atomic.Int64
	errorCount    atomic.Int64
	responseTimes []float64
	mu            sync.Mutex
}

func (s *stats) addResponseTime(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = append(s.responseTimes, seconds)
}

func (s *stats) sortedResponseTimes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := make([]float64, len(s.responseTimes))
	copy(times, s.responseTimes)
	sort.Float64s(times)
	return times
}

func sendRequest(client *fasthttp.Client, url, token string, payload []byte, st *stats) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	req.SetBody(payload)

	start := time.Now()
	err := client.DoTimeout(req, resp, 60*time.Second)
	st.addResponseTime(time.Since(start).Seconds())
	if err != nil {
		st.errorCount.Add(1)
		return
	}

	// repeated interest answers 200, the first one 201
	switch resp.StatusCode() {
	case fasthttp.StatusOK, fasthttp.StatusCreated:
		st.successCount.Add(1)
	default:
		st.errorCount.Add(1)
	}
}

func worker(client *fasthttp.Client, cfg loadTestConfig, tokens []string, payload []byte, st *stats, jobs <-chan int, wg *sync.WaitGroup) {
	defer wg.Done()
	for n := range jobs {
		sendRequest(client, cfg.URL, tokens[n%len(tokens)], payload, st)
	}
}

// percentile expects sorted input.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func splitTokens(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func main() {
	var cfg loadTestConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	tokens := splitTokens(cfg.Tokens)
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "BUYER_TOKENS holds no tokens")
		os.Exit(1)
	}

	payload, err := json.Marshal(interestPayload{PropertyID: cfg.PropertyID})
	if err != nil {
		panic(err)
	}

	fmt.Println("Starting load test...")
	fmt.Printf("Target: %s\n", cfg.URL)
	fmt.Printf("Buyers: %d\n", len(tokens))
	fmt.Printf("Total requests: %d\n", cfg.RequestsPerSecond*cfg.DurationSeconds)
	fmt.Printf("Target RPS: %d\n", cfg.RequestsPerSecond)
	fmt.Printf("Concurrent workers: %d\n", cfg.ConcurrentWorkers)
	fmt.Printf("Duration: %d seconds\n", cfg.DurationSeconds)
	fmt.Println(strings.Repeat("-", 50))

	st := &stats{}
	client := &fasthttp.Client{
		MaxConnsPerHost:     cfg.ConcurrentWorkers,
		MaxIdleConnDuration: 90 * time.Second,
	}

	jobs := make(chan int, cfg.RequestsPerSecond)
	var wg sync.WaitGroup
	for i := 0; i < cfg.ConcurrentWorkers; i++ {
		wg.Add(1)
		go worker(client, cfg, tokens, payload, st, jobs, &wg)
	}

	startTime := time.Now()
	sent := 0
	for i := 0; i < cfg.DurationSeconds; i++ {
		batchStart := time.Now()
		for j := 0; j < cfg.RequestsPerSecond; j++ {
			jobs <- sent
			sent++
		}

		success := st.successCount.Load()
		failed := st.errorCount.Load()
		fmt.Printf("[%ds] Completed: %d | Success: %d | Errors: %d\n", i+1, success+failed, success, failed)

		if elapsed := time.Since(batchStart); elapsed < time.Second {
			time.Sleep(time.Second - elapsed)
		}
	}
	close(jobs)
	wg.Wait()

	duration := time.Since(startTime).Seconds()
	success := st.successCount.Load()
	failed := st.errorCount.Load()
	total := success + failed

	times := st.sortedResponseTimes()
	var avg, minTime, maxTime float64
	if len(times) > 0 {
		sum := 0.0
		for _, t := range times {
			sum += t
		}
		avg = sum / float64(len(times))
		minTime, maxTime = times[0], times[len(times)-1]
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Duration: %.2f seconds\n", duration)
	fmt.Printf("Total requests: %d\n", total)
	fmt.Printf("Successful: %d\n", success)
	fmt.Printf("Failed: %d\n", failed)
	if total > 0 {
		fmt.Printf("Success rate: %.2f%%\n", float64(success)/float64(total)*100)
	}
	fmt.Printf("\nActual RPS: %.2f\n", float64(total)/duration)
	fmt.Printf("\nResponse times:\n")
	fmt.Printf("  Average: %.2f ms\n", avg*1000)
	fmt.Printf("  P50: %.2f ms\n", percentile(times, 0.50)*1000)
	fmt.Printf("  P95: %.2f ms\n", percentile(times, 0.95)*1000)
	fmt.Printf("  P99: %.2f ms\n", percentile(times, 0.99)*1000)
	fmt.Printf("  Min: %.2f ms\n", minTime*1000)
	fmt.Printf("  Max: %.2f ms\n", maxTime*1000)
}
