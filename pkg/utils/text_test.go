package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("日本語のテキスト", 3); got != "日本語..." {
		t.Errorf("multibyte: got %s", got)
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("  a loop\n\trepeats   code \r\n"); got != "a loop repeats code" {
		t.Errorf("got %q", got)
	}
	if OneLine("") != "" {
		t.Error("empty stays empty")
	}
}
