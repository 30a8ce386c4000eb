package main

import (
	"testing"
	"time"

	"voxedit.ai/internal/protocol"
)

func TestParseLine(t *testing.T) {
	msg, _, err := parseLine("/set #FF0000 50%")
	if err != nil {
		t.Fatalf("cmd: %v", err)
	}
	cmd, ok := msg.(protocol.CmdMsg)
	if !ok || cmd.Name != "set" || len(cmd.Args) != 2 || cmd.Args[1] != "50%" {
		t.Fatalf("cmd=%+v", msg)
	}

	msg, _, err = parseLine("click primary 1,2,3")
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	c, ok := msg.(protocol.ClickMsg)
	if !ok || c.Button != protocol.ButtonPrimary || c.Target == nil || *c.Target != [3]int{1, 2, 3} {
		t.Fatalf("click=%+v", msg)
	}

	msg, _, err = parseLine("click secondary")
	if c, ok := msg.(protocol.ClickMsg); err != nil || !ok || c.Target != nil {
		t.Fatalf("click without target=%+v err=%v", msg, err)
	}

	msg, _, err = parseLine("pose 4,5,6 #00FF00")
	if p, ok := msg.(protocol.PoseMsg); err != nil || !ok || p.Pos != [3]int{4, 5, 6} || p.Color != "#00FF00" {
		t.Fatalf("pose=%+v err=%v", msg, err)
	}

	_, wait, err := parseLine("wait 250ms")
	if err != nil || wait != 250*time.Millisecond {
		t.Fatalf("wait=%v err=%v", wait, err)
	}

	for _, blank := range []string{"", "   ", "# comment"} {
		if msg, wait, err := parseLine(blank); msg != nil || wait != 0 || err != nil {
			t.Fatalf("%q: msg=%v wait=%v err=%v", blank, msg, wait, err)
		}
	}
	for _, bad := range []string{"/", "jump", "click", "pose 1,2", "wait soon"} {
		if _, _, err := parseLine(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
