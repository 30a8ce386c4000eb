package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"voxedit.ai/internal/protocol"
)

// bot connects as one actor and plays a script of edits, one line per input:
//
//	/sel                     command (leading slash, space separated args)
//	click primary 1,2,3      click with button and optional target
//	pose 1,2,3 #FF0000       position and held color
//	wait 500ms               pause between inputs
func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "actor name")
		script = flag.String("script", "", "script file (default: stdin)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	var in io.Reader = os.Stdin
	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			logger.Fatalf("open script: %v", err)
		}
		defer f.Close()
		in = f
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ActorName:       *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		readLoop(conn, logger)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case <-stop:
			return
		case <-done:
			return
		default:
		}
		msg, wait, err := parseLine(sc.Text())
		if err != nil {
			logger.Printf("skip %q: %v", sc.Text(), err)
			continue
		}
		if wait > 0 {
			time.Sleep(wait)
			continue
		}
		if msg == nil {
			continue
		}
		if err := conn.WriteJSON(msg); err != nil {
			logger.Printf("send: %v", err)
			return
		}
	}

	// Script finished; keep printing updates until interrupted.
	select {
	case <-stop:
	case <-done:
	}
}

func readLoop(conn *websocket.Conn, logger *log.Logger) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME actor_id=%s grid=%dx%dx%d drain=%dms", w.ActorID, w.Grid.W, w.Grid.D, w.Grid.H, w.DrainPeriodMs)
		case protocol.TypeStatus:
			var s protocol.StatusMsg
			if err := json.Unmarshal(msg, &s); err != nil {
				continue
			}
			if s.Code != "" {
				logger.Printf("STATUS [%s] %s", s.Code, s.Text)
				continue
			}
			logger.Printf("STATUS %s", s.Text)
		case protocol.TypeVoxels:
			var v protocol.VoxelsMsg
			if err := json.Unmarshal(msg, &v); err != nil {
				continue
			}
			logger.Printf("VOXELS tick=%d cells=%d", v.Tick, len(v.Cells))
		}
	}
}

// parseLine turns one script line into a client message. Blank lines and
// lines starting with # yield nothing.
func parseLine(line string) (msg any, wait time.Duration, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, 0, nil
	}
	if strings.HasPrefix(line, "/") {
		f := strings.Fields(strings.TrimPrefix(line, "/"))
		if len(f) == 0 {
			return nil, 0, fmt.Errorf("empty command")
		}
		return protocol.CmdMsg{Type: protocol.TypeCmd, Name: f[0], Args: f[1:]}, 0, nil
	}
	f := strings.Fields(line)
	switch strings.ToLower(f[0]) {
	case "wait":
		if len(f) != 2 {
			return nil, 0, fmt.Errorf("usage: wait <duration>")
		}
		d, err := time.ParseDuration(f[1])
		if err != nil {
			return nil, 0, err
		}
		return nil, d, nil
	case "click":
		if len(f) < 2 || len(f) > 3 {
			return nil, 0, fmt.Errorf("usage: click <button> [x,y,z]")
		}
		c := protocol.ClickMsg{Type: protocol.TypeClick, Button: strings.ToLower(f[1])}
		if len(f) == 3 {
			p, err := parseVec3(f[2])
			if err != nil {
				return nil, 0, err
			}
			c.Target = &p
		}
		return c, 0, nil
	case "pose":
		if len(f) < 2 || len(f) > 3 {
			return nil, 0, fmt.Errorf("usage: pose <x,y,z> [color]")
		}
		p, err := parseVec3(f[1])
		if err != nil {
			return nil, 0, err
		}
		m := protocol.PoseMsg{Type: protocol.TypePose, Pos: p}
		if len(f) == 3 {
			m.Color = f[2]
		}
		return m, 0, nil
	}
	return nil, 0, fmt.Errorf("unknown directive %q", f[0])
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
