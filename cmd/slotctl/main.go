// slotctl prints the state of a running slotwatch through its status API.
//
//	slotctl                  # all locations
//	slotctl location SEA
//	slotctl polls
//	slotctl notifications    # needs an admin key
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

type location struct {
	Code               string     `json:"code"`
	LocationID         int        `json:"location_id"`
	Alert              bool       `json:"alert"`
	BestSlot           string     `json:"best_slot"`
	LastNotificationAt *time.Time `json:"last_notification_at"`
}

type poll struct {
	Location   string    `json:"location"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error"`
	SlotCount  int       `json:"slot_count"`
	LatencyMS  float64   `json:"latency_ms"`
	PolledAt   time.Time `json:"polled_at"`
}

type notifications struct {
	SentLast24h int                 `json:"sent_last_24h"`
	Recent      map[string][]string `json:"recent"`
}

func main() {
	api := strings.TrimRight(os.Getenv("API_BASE"), "/")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	cmd := "locations"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "locations":
		var locs []location
		if err = getJSON(api+"/api/locations", key, &locs); err == nil {
			printLocations(locs)
		}
	case "location":
		if len(os.Args) < 3 {
			fmt.Println("usage: slotctl location CODE")
			os.Exit(2)
		}
		var l location
		if err = getJSON(api+"/api/locations/"+os.Args[2], key, &l); err == nil {
			printLocations([]location{l})
		}
	case "polls":
		var polls []poll
		if err = getJSON(api+"/api/polls/latest", key, &polls); err == nil {
			printPolls(polls)
		}
	case "notifications":
		var n notifications
		if err = getJSON(api+"/api/notifications", key, &n); err == nil {
			fmt.Println("sent in the last 24h:", n.SentLast24h)
			for loc, msgs := range n.Recent {
				for _, m := range msgs {
					fmt.Printf("  %s  %s\n", loc, m)
				}
			}
		}
	default:
		fmt.Println("unknown command:", cmd)
		os.Exit(2)
	}
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
}

func getJSON(url, key string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printLocations(locs []location) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tID\tALERT\tBEST SLOT\tLAST NOTIFIED")
	for _, l := range locs {
		best, last := "-", "-"
		if l.BestSlot != "" {
			best = l.BestSlot
		}
		if l.LastNotificationAt != nil {
			last = l.LastNotificationAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%s\t%s\n", l.Code, l.LocationID, l.Alert, best, last)
	}
	w.Flush()
}

func printPolls(polls []poll) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tSTATUS\tSLOTS\tLATENCY\tPOLLED\tERROR")
	for _, p := range polls {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0fms\t%s\t%s\n",
			p.Location, p.StatusCode, p.SlotCount, p.LatencyMS,
			p.PolledAt.Local().Format("15:04:05"), p.Error)
	}
	w.Flush()
}
