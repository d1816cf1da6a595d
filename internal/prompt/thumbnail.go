package prompt

import "strings"

type VerticalPosition string

const (
	Top     VerticalPosition = "top"
	VCenter VerticalPosition = "center"
	Bottom  VerticalPosition = "bottom"
)

type HorizontalPosition string

const (
	Left    HorizontalPosition = "left"
	HCenter HorizontalPosition = "center"
	Right   HorizontalPosition = "right"
)

type TextLine struct {
	Text       string             `json:"text"`
	Vertical   VerticalPosition   `json:"verticalPosition"`
	Horizontal HorizontalPosition `json:"horizontalPosition"`
}

const MaxThumbnailLines = 3

// ThumbnailText holds three line slots; only the first LineCount are active.
type ThumbnailText struct {
	Lines     [MaxThumbnailLines]TextLine `json:"lines"`
	LineCount int                         `json:"lineCount"`
}

const thumbnailStyleHint = "大きく太い文字、白い縁取り付き、視認性の高いテキスト"

func DefaultThumbnailText() ThumbnailText {
	var cfg ThumbnailText
	for i := range cfg.Lines {
		cfg.Lines[i] = TextLine{Vertical: VCenter, Horizontal: HCenter}
	}
	cfg.LineCount = 1
	return cfg
}

// ActiveLines returns the active, non-blank lines. LineCount outside 0..3 is
// clamped rather than rejected.
func (t ThumbnailText) ActiveLines() []TextLine {
	n := t.LineCount
	if n < 0 {
		n = 0
	}
	if n > MaxThumbnailLines {
		n = MaxThumbnailLines
	}

	out := make([]TextLine, 0, n)
	for _, line := range t.Lines[:n] {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ComposeThumbnailText renders the on-image text instruction, e.g.
// 「SALE」を上右に配置、大きく太い文字、白い縁取り付き、視認性の高いテキスト.
// It returns "" when no active line has text.
func ComposeThumbnailText(cfg ThumbnailText) string {
	lines := cfg.ActiveLines()
	if len(lines) == 0 {
		return ""
	}

	phrases := make([]string, 0, len(lines))
	for _, line := range lines {
		phrases = append(phrases, "「"+strings.TrimSpace(line.Text)+"」を"+positionLabel(line.Vertical, line.Horizontal)+"に")
	}
	return strings.Join(phrases, "、") + "配置、" + thumbnailStyleHint
}

var (
	verticalLabels = map[VerticalPosition]string{
		Top:     "上",
		VCenter: "中央",
		Bottom:  "下",
	}
	horizontalLabels = map[HorizontalPosition]string{
		Left:    "左",
		HCenter: "中央",
		Right:   "右",
	}
)

// Unset positions count as center.
func positionLabel(v VerticalPosition, h HorizontalPosition) string {
	if _, ok := verticalLabels[v]; !ok {
		v = VCenter
	}
	if _, ok := horizontalLabels[h]; !ok {
		h = HCenter
	}

	switch {
	case v == VCenter && h == HCenter:
		return "中央"
	case v == VCenter:
		return horizontalLabels[h]
	case h == HCenter:
		return verticalLabels[v]
	default:
		return verticalLabels[v] + horizontalLabels[h]
	}
}
