package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func client() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
}

func get(baseURL, path string) {
	resp, err := client().Get(endpoint(baseURL, path))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func post(baseURL, path string, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
	resp, err := client().Post(endpoint(baseURL, path), "application/json", bytes.NewReader(b))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(out)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)
	get(*baseURL, "/v1/state")
}

func alertsCmd(args []string) {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)
	get(*baseURL, "/v1/alerts")
}

func summonCmd(args []string) {
	fs := flag.NewFlagSet("summon", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	actor := fs.String("actor", "", "actor name")
	room := fs.String("room", "", "destination room")
	duration := fs.Int("duration", 0, "meeting length in minutes (0 = default)")
	_ = fs.Parse(args)
	if *actor == "" || *room == "" {
		fmt.Fprintln(os.Stderr, "missing -actor or -room")
		os.Exit(2)
	}
	post(*baseURL, "/v1/principal/summon", map[string]any{
		"actor":            *actor,
		"room":             *room,
		"duration_minutes": *duration,
	})
}

// overrideCmd replaces an actor's plan. Blocks come in as repeatable
// "activity[,start[,duration[,room]]]" values.
func overrideCmd(args []string) {
	fs := flag.NewFlagSet("override", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	actor := fs.String("actor", "", "actor name")
	reason := fs.String("reason", "", "audit reason")
	var blocks blockListFlag
	fs.Var(&blocks, "block", "plan block as activity[,start[,duration[,room]]] (repeatable)")
	_ = fs.Parse(args)
	if *actor == "" || len(blocks) == 0 {
		fmt.Fprintln(os.Stderr, "missing -actor or -block")
		os.Exit(2)
	}
	post(*baseURL, "/v1/principal/override", map[string]any{
		"actor":  *actor,
		"reason": *reason,
		"blocks": blocks,
	})
}

func resolveCmd(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	id := fs.String("id", "", "alert id")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "missing -id")
		os.Exit(2)
	}
	post(*baseURL, "/v1/principal/resolve_alert", map[string]string{"alert_id": *id})
}

func broadcastCmd(args []string) {
	fs := flag.NewFlagSet("broadcast", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	message := fs.String("message", "", "announcement text")
	_ = fs.Parse(args)
	if *message == "" {
		fmt.Fprintln(os.Stderr, "missing -message")
		os.Exit(2)
	}
	post(*baseURL, "/v1/principal/broadcast", map[string]string{"message": *message})
}

func overridesCmd(args []string) {
	fs := flag.NewFlagSet("overrides", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	limit := fs.Int("limit", 10, "max records")
	_ = fs.Parse(args)
	get(*baseURL, fmt.Sprintf("/v1/principal/overrides?limit=%d", *limit))
}

// blockListFlag collects repeated -block values into override payloads.
type blockListFlag []map[string]string

func (b *blockListFlag) String() string { return fmt.Sprintf("%d blocks", len(*b)) }

func (b *blockListFlag) Set(v string) error {
	parts := strings.Split(v, ",")
	block := map[string]string{"activity": strings.TrimSpace(parts[0])}
	keys := []string{"", "start", "duration", "room"}
	for i := 1; i < len(parts) && i < len(keys); i++ {
		if s := strings.TrimSpace(parts[i]); s != "" {
			block[keys[i]] = s
		}
	}
	*b = append(*b, block)
	return nil
}
