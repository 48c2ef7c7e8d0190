package tools

import "testing"

func TestTruncate_ShortContentUnchanged(t *testing.T) {
	out, truncated := truncate("hello", 100)
	if truncated || out != "hello" {
		t.Errorf("got (%q, %v), want (\"hello\", false)", out, truncated)
	}
}

func TestTruncate_LongContentKeepsHeadAndTail(t *testing.T) {
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	out, truncated := truncate(string(content), 100)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if out[:1] != string(content[:1]) {
		t.Errorf("expected output to start with original head")
	}
	if out[len(out)-1:] != string(content[len(content)-1:]) {
		t.Errorf("expected output to end with original tail")
	}
}

func TestTruncate_ZeroMaxDisablesTruncation(t *testing.T) {
	_, truncated := truncate("anything at all", 0)
	if truncated {
		t.Error("max <= 0 should disable truncation")
	}
}
