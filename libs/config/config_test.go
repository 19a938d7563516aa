package config

import (
	"testing"
	"time"
)

func TestBool(t *testing.T) {
	t.Setenv("CFG_FLAG", "TRUE")
	if !Bool("CFG_FLAG", false) {
		t.Fatal("expected TRUE to parse as true")
	}
	t.Setenv("CFG_FLAG", "nope")
	if Bool("CFG_FLAG", true) {
		t.Fatal("expected unknown value to parse as false")
	}
	if !Bool("CFG_FLAG_UNSET", true) {
		t.Fatal("expected fallback for unset key")
	}
}

func TestDurationAndPort(t *testing.T) {
	t.Setenv("CFG_WAIT", "90s")
	d, err := Duration("CFG_WAIT", time.Second)
	if err != nil || d != 90*time.Second {
		t.Fatalf("unexpected duration %v err=%v", d, err)
	}
	t.Setenv("CFG_WAIT", "soon")
	if _, err := Duration("CFG_WAIT", time.Second); err == nil {
		t.Fatal("expected error for invalid duration")
	}

	t.Setenv("CFG_PORT", "70000")
	if _, err := Port("CFG_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestList(t *testing.T) {
	t.Setenv("CFG_ORIGINS", " https://a.example ,, https://b.example ")
	got := List("CFG_ORIGINS")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected list: %#v", got)
	}
}
