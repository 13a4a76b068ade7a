package main

import "testing"

func TestLooksLikeMarkdown(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"Done.", false},
		{"Your meeting is at 3pm.", false},
		{"# Inbox\n- one\n- two", true},
		{"Here are the headlines:\n1. First\n2. Second", true},
		{"See [the docs](https://example.com) for details on configuring feeds and everything else", true},
	}
	for _, tc := range cases {
		if got := looksLikeMarkdown(tc.content); got != tc.want {
			t.Fatalf("looksLikeMarkdown(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}
