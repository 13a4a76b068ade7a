package main

import (
	"fmt"
	"os"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"golang.org/x/term"
)

// terminalWidth returns the rendering width, capped for readability when the
// terminal is very wide.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	width -= 2
	if width > 100 {
		width = 100
	}
	return width
}

// looksLikeMarkdown keeps plain one-liners out of the renderer so short
// answers print without extra padding.
func looksLikeMarkdown(content string) bool {
	if !strings.Contains(content, "\n") && len(content) < 120 {
		return false
	}
	for _, marker := range []string{"# ", "- ", "* ", "```", "**", "1. ", "]("} {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return strings.Contains(content, "\n")
}

func printReply(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	if looksLikeMarkdown(content) {
		fmt.Print(string(markdown.Render(content, terminalWidth(), 2)))
		return
	}
	fmt.Println(content)
}
