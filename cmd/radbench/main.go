package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/seed4me/radclient/internal/admin"
	"github.com/seed4me/radclient/internal/metrics"
	"github.com/seed4me/radclient/pkg/client"
)

var (
	serverAddr    = flag.String("server", "127.0.0.1", "RADIUS server address (host or host:port)")
	secret        = flag.String("secret", "testing123", "RADIUS shared secret")
	nasIP         = flag.String("nas-ip", "", "NAS-IP-Address to use in requests")
	username      = flag.String("username", "testuser", "Username for authentication")
	password      = flag.String("password", "testpass", "Password for authentication")
	method        = flag.String("method", "pap", "Authentication method: pap, chap, mschap, eap-mschapv2")
	concurrency   = flag.Int("c", 100, "Number of concurrent workers")
	totalRequests = flag.Int("n", 1000, "Total number of requests to send")
	timeout       = flag.Duration("timeout", 3*time.Second, "Request timeout")
	statsAddr     = flag.String("stats-addr", "", "Optional address for the HTTP stats endpoint")
	verbose       = flag.Bool("v", false, "Verbose output (show every verdict)")
)

func main() {
	flag.Parse()

	fmt.Println("RADIUS Performance Tester")
	fmt.Println("=========================")
	fmt.Printf("Server:       %s\n", *serverAddr)
	fmt.Printf("Concurrency:  %d\n", *concurrency)
	fmt.Printf("Total reqs:   %d\n", *totalRequests)
	fmt.Printf("Auth method:  %s\n", *method)
	fmt.Printf("Timeout:      %s\n", *timeout)
	fmt.Println("-------------------------")

	m := metrics.New()
	startTime := time.Now()

	if *statsAddr != "" {
		stats := admin.NewStatsServer(m, *statsAddr)
		go func() {
			if err := stats.Start(); err != nil {
				fmt.Printf("Stats server error: %v\n", err)
			}
		}()
		defer stats.Stop()
	}

	setupSignalHandler()

	workCh := make(chan struct{}, *concurrency*2)

	var wg sync.WaitGroup
	wg.Add(*concurrency)
	for i := 0; i < *concurrency; i++ {
		go worker(workCh, m, &wg)
	}

	go func() {
		for i := 0; i < *totalRequests; i++ {
			workCh <- struct{}{}
		}
		close(workCh)
	}()

	wg.Wait()

	printFinalStats(m, startTime)
}

func setupSignalHandler() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nTest interrupted by user")
		os.Exit(0)
	}()
}

// worker drives one Client; clients keep per-instance identifier
// state, so each worker gets its own.
func worker(workCh <-chan struct{}, m *metrics.Metrics, wg *sync.WaitGroup) {
	defer wg.Done()

	c := client.New(*serverAddr, *secret, client.WithTimeout(*timeout))
	if *nasIP != "" {
		c.SetNASIPAddress(*nasIP)
	}

	for range workCh {
		start := time.Now()
		ok := authenticate(c)
		duration := time.Since(start)
		m.RecordAttempt(ok, c.LastErrorCode(), duration)

		if *verbose {
			if ok {
				fmt.Printf("Success! Response time: %v\n", duration)
			} else {
				fmt.Printf("Failure! (%d: %s) Response time: %v\n",
					c.LastErrorCode(), c.LastErrorMessage(), duration)
			}
		}
	}
}

func authenticate(c *client.Client) bool {
	switch *method {
	case "chap":
		return c.AuthenticateCHAP(*username, *password)
	case "mschap":
		return c.AuthenticateMSCHAP(*username, *password)
	case "eap-mschapv2":
		return c.AuthenticateEAPMSCHAPv2(*username, *password)
	default:
		return c.AuthenticatePAP(*username, *password)
	}
}

func printFinalStats(m *metrics.Metrics, startTime time.Time) {
	elapsed := time.Since(startTime).Seconds()
	stats := m.GetStats()
	total := stats["total_attempts"].(uint64)
	if total == 0 {
		fmt.Println("\nNo requests completed")
		return
	}

	pct := func(key string) float64 {
		return float64(stats[key].(uint64)) / float64(total) * 100
	}

	fmt.Println("\nTest Complete")
	fmt.Println("=============")
	fmt.Printf("Total time:        %.2f seconds\n", elapsed)
	fmt.Printf("Requests sent:     %d\n", total)
	fmt.Printf("Accepted:          %d (%.1f%%)\n", stats["accepted"], pct("accepted"))
	fmt.Printf("Rejected:          %d (%.1f%%)\n", stats["rejected"], pct("rejected"))
	fmt.Printf("Timeouts:          %d (%.1f%%)\n", stats["timeouts"], pct("timeouts"))
	fmt.Printf("Errors:            %d (%.1f%%)\n", stats["errors"], pct("errors"))
	fmt.Printf("Requests per sec:  %.1f\n", float64(total)/elapsed)
	fmt.Printf("Avg response time: %dms\n", stats["avg_latency_ms"])
	fmt.Printf("Min response time: %dms\n", stats["min_latency_ms"])
	fmt.Printf("Max response time: %dms\n", stats["max_latency_ms"])
}
