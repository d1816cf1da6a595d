package handlers

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"arive-prompt-bot/internal/prompt"
)

// normalizeToken folds full-width ASCII typed on Japanese keyboards
// ("ｍｉｄｊｏｕｒｎｅｙ", "１") into its narrow form and lowercases it.
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(width.Fold.String(s)))
}

func fields(args string) []string {
	return strings.Fields(width.Fold.String(args))
}

// parseOnOff reports ok=false when arg names neither state; callers toggle then.
func parseOnOff(arg string) (on, ok bool) {
	switch normalizeToken(arg) {
	case "on", "true", "1", "yes":
		return true, true
	case "off", "false", "0", "no":
		return false, true
	}
	return false, false
}

var verticalWords = map[string]prompt.VerticalPosition{
	"top": prompt.Top, "上": prompt.Top,
	"middle": prompt.VCenter, "中": prompt.VCenter,
	"bottom": prompt.Bottom, "下": prompt.Bottom,
}

var horizontalWords = map[string]prompt.HorizontalPosition{
	"left": prompt.Left, "左": prompt.Left,
	"right": prompt.Right, "右": prompt.Right,
}

// parseTextLine reads "/text <n> [top|center|bottom] [left|center|right] text".
// The first "center" token is the vertical position, a second one the
// horizontal. It returns a 0-based index.
func parseTextLine(args string) (int, prompt.TextLine, bool) {
	tokens := strings.Fields(args)
	if len(tokens) == 0 {
		return 0, prompt.TextLine{}, false
	}
	n, err := strconv.Atoi(normalizeToken(tokens[0]))
	if err != nil || n < 1 || n > prompt.MaxThumbnailLines {
		return 0, prompt.TextLine{}, false
	}

	line := prompt.TextLine{Vertical: prompt.VCenter, Horizontal: prompt.HCenter}
	rest := tokens[1:]
	vertSet, horizSet := false, false
	for len(rest) > 0 {
		tok := normalizeToken(rest[0])
		if v, ok := verticalWords[tok]; ok && !vertSet {
			line.Vertical, vertSet = v, true
		} else if h, ok := horizontalWords[tok]; ok && !horizSet {
			line.Horizontal, horizSet = h, true
		} else if tok == "center" && !vertSet {
			vertSet = true
		} else if tok == "center" && !horizSet {
			horizSet = true
		} else {
			break
		}
		rest = rest[1:]
	}
	line.Text = strings.Join(rest, " ")
	return n - 1, line, true
}

func truncateLine(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
