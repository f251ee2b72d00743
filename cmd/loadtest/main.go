// Command loadtest hammers the sell endpoint with concurrent staff terminals
// and verifies afterwards that the inventory never oversold.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result records one HTTP outcome for aggregation.
type Result struct {
	Status int
	Body   string
	Err    error
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	adminToken := flag.String("admin-token", "dev-admin-token", "admin token for the stock-set endpoint")
	initialStock := flag.Int64("stock", 100, "stock level to set before the run")
	quantity := flag.Int64("qty", 1, "trays per sale")

	nTerminals := flag.Int("terminals", 200, "distinct staff terminals")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	// Reset stock so the run starts from a known level.
	if err := setStock(client, *baseURL, *adminToken, *initialStock); err != nil {
		panic(fmt.Sprintf("set stock failed: %v", err))
	}
	fmt.Printf("stock set to %d\n", *initialStock)

	fmt.Printf("start oversell test: terminals=%d qty=%d concurrency=%d\n",
		*nTerminals, *quantity, *concurrency)
	results := runSales(client, *baseURL, *quantity, *nTerminals, *concurrency)
	printSummary("oversell", results)

	// The invariant: successes * qty never exceeds the initial stock, and the
	// final stock reflects exactly the committed sales.
	stock, err := getStock(client, *baseURL)
	if err != nil {
		fmt.Println("stock check err:", err)
		return
	}
	successes := countStatus(results, http.StatusOK)
	fmt.Printf("final stock: %d (successes=%d, expected=%d)\n",
		stock, successes, *initialStock-int64(successes)*(*quantity))
	if stock < 0 {
		fmt.Println("FAIL: stock went negative")
	}
}

func runSales(client *http.Client, baseURL string, quantity int64, nTerminals, concurrency int) []Result {
	type Req struct {
		Quantity int64 `json:"quantity"`
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, nTerminals)

	for i := 0; i < nTerminals; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = sellOnce(client, baseURL, Req{Quantity: quantity}, fmt.Sprintf("terminal-%d", idx+1))
		}(i)
	}

	wg.Wait()
	return results
}

func sellOnce(client *http.Client, baseURL string, req any, staffID string) Result {
	b, _ := json.Marshal(req)
	url := fmt.Sprintf("%s/api/sales", baseURL)
	httpReq, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Staff-Id", staffID)
	httpReq.Header.Set("X-Staff-Name", staffID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(body)}
}

func setStock(client *http.Client, baseURL, adminToken string, stock int64) error {
	b, _ := json.Marshal(map[string]int64{"stock": stock})
	req, _ := http.NewRequest(http.MethodPut, baseURL+"/api/inventory/stock", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", adminToken)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

func getStock(client *http.Client, baseURL string) (int64, error) {
	resp, err := client.Get(baseURL + "/api/inventory")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Code int `json:"code"`
		Data struct {
			Stock int64 `json:"stock"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, err
	}
	return out.Data.Stock, nil
}

// printSummary aggregates status code distribution.
func printSummary(name string, results []Result) {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{200, 400, 401, 409, 429, 500, 503} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
}

func countStatus(results []Result, status int) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}
