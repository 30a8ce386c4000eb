package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"voxedit.ai/internal/sim/engine"
	"voxedit.ai/internal/sim/voxel"
	"voxedit.ai/internal/sim/voxmap"
)

// serverState mirrors the body served at /admin/v1/state.
type serverState struct {
	Source  string         `json:"source"`
	Tick    uint64         `json:"tick"`
	Grid    voxel.Dims     `json:"grid"`
	Zones   []voxmap.Zone  `json:"zones"`
	Metrics engine.Metrics `json:"metrics"`
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("raw", false, "print the response body as-is")
	_ = fs.Parse(args)

	st, body, err := fetchState(&http.Client{Timeout: 5 * time.Second}, *baseURL)
	if *raw && body != nil {
		fmt.Println(string(body))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "state:", err)
		os.Exit(1)
	}
	if !*raw {
		printState(os.Stdout, st)
	}
}

// fetchState returns the decoded state and the raw body. The body is
// returned even when the status is not 2xx.
func fetchState(cl *http.Client, baseURL string) (serverState, []byte, error) {
	var st serverState
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/admin/v1/state"
	resp, err := cl.Get(u)
	if err != nil {
		return st, nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return st, nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return st, b, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, b, fmt.Errorf("decode: %w", err)
	}
	return st, b, nil
}

func printState(w io.Writer, st serverState) {
	m := st.Metrics
	fmt.Fprintf(w, "source         %s\n", st.Source)
	fmt.Fprintf(w, "tick           %d\n", st.Tick)
	fmt.Fprintf(w, "grid           %dx%dx%d\n", st.Grid.W, st.Grid.D, st.Grid.H)
	fmt.Fprintf(w, "zones          %d\n", len(st.Zones))
	fmt.Fprintf(w, "actors         %d (busy %d)\n", m.Actors, m.BusySessions)
	fmt.Fprintf(w, "pending        %d\n", m.PendingWrites)
	fmt.Fprintf(w, "filled         %d\n", m.FilledCells)
	fmt.Fprintf(w, "queues         inbox=%d join=%d leave=%d\n", m.QueueDepths.Inbox, m.QueueDepths.Join, m.QueueDepths.Leave)
	fmt.Fprintf(w, "step           %.2fms\n", m.StepMS)
	fmt.Fprintf(w, "writes         applied=%d denied=%d\n", m.AppliedTotal, m.DeniedTotal)
}
