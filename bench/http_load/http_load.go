package main

import (
	"bytes"
	"crypto/tls"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// credentials is the register/login payload
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string `json:"token"`
}

type addPostResp struct {
	Post struct {
		ID string `json:"postId"`
	} `json:"post"`
}

type counters struct {
	requests  int64
	successes int64
	errors4xx int64
	errors5xx int64
}

func (c *counters) record(status int) {
	atomic.AddInt64(&c.requests, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&c.successes, 1)
	case status >= 400 && status < 500:
		atomic.AddInt64(&c.errors4xx, 1)
	case status >= 500:
		atomic.AddInt64(&c.errors5xx, 1)
	}
}

func main() {
	// --- Command-line flags ---
	var server string
	var duration int
	var concurrency int
	var csvFile string
	var trimPercent float64
	var insecure bool

	flag.StringVar(&server, "server", "http://localhost:8080", "server base URL")
	flag.IntVar(&duration, "duration", 30, "duration in seconds")
	flag.IntVar(&concurrency, "c", 50, "number of concurrent goroutines / users")
	flag.StringVar(&csvFile, "csv", "latencies.csv", "CSV file to save latencies")
	flag.Float64Var(&trimPercent, "trim", 1.0, "percent of latency to trim from top and bottom for trimmed mean")
	flag.BoolVar(&insecure, "insecure", false, "skip TLS certificate verification (self-signed dev certs)")
	flag.Parse()

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: insecure},
		},
		Timeout: 10 * time.Second,
	}

	// --- Register and log in one user per goroutine ---
	fmt.Printf("Creating %d users...\n", concurrency)
	tokens := make([]string, concurrency)
	for i := 0; i < concurrency; i++ {
		creds := credentials{
			Username: fmt.Sprintf("load-user-%d-%d", i, time.Now().UnixNano()),
			Password: "load-test-password",
		}
		if _, err := postJSON(client, server+"/register", "", creds, nil); err != nil {
			panic(fmt.Sprintf("failed to register user: %v", err))
		}

		var lr loginResp
		if _, err := postJSON(client, server+"/login", "", creds, &lr); err != nil {
			panic(fmt.Sprintf("failed to log in: %v", err))
		}
		tokens[i] = lr.Token
	}
	fmt.Println("Users created.")

	// --- Prepare concurrency test ---
	stopTime := time.Now().Add(time.Duration(duration) * time.Second)
	var wg sync.WaitGroup
	var stats counters

	latencySlices := make([][]float64, concurrency) // each goroutine records latencies

	// Each iteration creates a post and deletes it again, exercising the
	// auth gate, the insert and the conditional delete.
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			token := tokens[idx]
			var localLatencies []float64

			for time.Now().Before(stopTime) {
				start := time.Now()
				var created addPostResp
				status, err := postJSON(client, server+"/addPost", token, map[string]string{
					"caption": fmt.Sprintf("load test post %d", time.Now().UnixNano()),
					"postUrl": "https://img.example.com/load.jpg",
					"created": time.Now().UTC().Format(time.RFC3339),
				}, &created)
				localLatencies = append(localLatencies, time.Since(start).Seconds()*1000)
				stats.record(status)
				if err != nil {
					fmt.Printf("addPost error: %v\n", err)
					continue
				}

				start = time.Now()
				status, err = doJSON(client, http.MethodDelete, server+"/deletePost", token,
					map[string]string{"postId": created.Post.ID}, nil)
				localLatencies = append(localLatencies, time.Since(start).Seconds()*1000)
				stats.record(status)
				if err != nil {
					fmt.Printf("deletePost error: %v\n", err)
				}
			}

			latencySlices[idx] = localLatencies
		}(i)
	}

	wg.Wait()

	// --- Merge all latencies ---
	var allLatencies []float64
	for _, slice := range latencySlices {
		allLatencies = append(allLatencies, slice...)
	}
	sort.Float64s(allLatencies)

	// --- Compute statistics ---
	trimmedMeanVal := trimmedMean(allLatencies, trimPercent)
	p50 := percentile(allLatencies, 50)
	p90 := percentile(allLatencies, 90)
	p99 := percentile(allLatencies, 99)

	fmt.Printf("Requests: %d  Successes: %d  4xx: %d  5xx: %d\n",
		stats.requests, stats.successes, stats.errors4xx, stats.errors5xx)
	fmt.Printf("Latency (ms): trimmed_mean=%.2f p50=%.2f p90=%.2f p99=%.2f\n", trimmedMeanVal, p50, p90, p99)

	// --- Save latencies to CSV ---
	f, err := os.Create(csvFile)
	if err != nil {
		fmt.Printf("Failed to create CSV file: %v\n", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"latency_ms"})
	for _, d := range allLatencies {
		w.Write([]string{fmt.Sprintf("%.3f", d)})
	}
	fmt.Printf("Saved latencies to %s\n", csvFile)
}

func postJSON(client *http.Client, url, token string, body, out any) (int, error) {
	return doJSON(client, http.MethodPost, url, token, body, out)
}

// doJSON sends body as JSON and decodes a 2xx response into out when non-nil.
func doJSON(client *http.Client, method, url, token string, body, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-access-token", token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

// trimmedMean calculates mean latency after trimming top/bottom trimPercent values
func trimmedMean(data []float64, trimPercent float64) float64 {
	if len(data) == 0 {
		return 0
	}
	trim := int(float64(len(data)) * trimPercent / 100.0)
	if trim*2 >= len(data) {
		trim = len(data) / 2
	}
	trimmed := data[trim : len(data)-trim]
	if len(trimmed) == 0 {
		return 0
	}
	var sum float64
	for _, v := range trimmed {
		sum += v
	}
	return sum / float64(len(trimmed))
}

// percentile calculates the p-th percentile from sorted data
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	k := (p / 100.0) * float64(len(data)-1)
	f := int(k)
	c := f + 1
	if c >= len(data) {
		return data[len(data)-1]
	}
	return data[f]*(float64(c)-k) + data[c]*(k-float64(f))
}
