package browser

import "testing"

func TestShouldBlock(t *testing.T) {
	set := map[string]bool{"images": true, "fonts": true, "xhr": true}
	cases := map[string]bool{
		"Image":      true,
		"Font":       true,
		"XHR":        true,
		"Stylesheet": false,
		"Document":   false,
		"Script":     false,
	}
	for typ, want := range cases {
		if got := shouldBlock(set, typ); got != want {
			t.Errorf("shouldBlock(%q) = %v, want %v", typ, got, want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !containsFold("https://LeetCode.com/problems/two-sum/", "leetcode.com/problems") {
		t.Fatal("expected case-insensitive match")
	}
	if containsFold("about:blank", "leetcode") {
		t.Fatal("unexpected match")
	}
}

func TestManager_NotStarted(t *testing.T) {
	m := NewManager(Config{})
	if m.Browser() != nil {
		t.Fatal("browser before Start")
	}
	if _, err := FindTab(m, "x", "p"); err == nil {
		t.Fatal("FindTab without browser should fail")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Start(t.Context()); err == nil {
		t.Fatal("Start after Close should fail")
	}
}
