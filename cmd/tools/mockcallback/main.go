// mockcallback replays the gateway's return redirect against a running
// server so the verify flow can be exercised without a browser.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "Server base URL")
	txID := flag.String("transaction-id", "", "Gateway transaction id")
	txRef := flag.String("tx-ref", "", "Payment id sent to the gateway as tx_ref")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	dryRun := flag.Bool("dry-run", false, "Only print the callback URL")
	flag.Parse()

	if *txID == "" || *txRef == "" {
		fmt.Fprintln(os.Stderr, "Error: -transaction-id and -tx-ref are required")
		flag.Usage()
		os.Exit(2)
	}

	q := url.Values{}
	q.Set("transaction_id", *txID)
	q.Set("tx_ref", *txRef)
	target := strings.TrimRight(*base, "/") + "/api/payments/verify/?" + q.Encode()

	if *dryRun {
		fmt.Println(target)
		return
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Get(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending callback: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("GET %s\n", target)
	fmt.Printf("Status: %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	fmt.Printf("Body: %s\n", body)

	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}
