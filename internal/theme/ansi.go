package theme

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/lmlassist/internal/lexer"
)

// ColorDepth is the colour capability of an output.
type ColorDepth uint8

const (
	// DepthNone disables escape sequences.
	DepthNone ColorDepth = iota
	// Depth256 uses the xterm 256-colour palette.
	Depth256
	// DepthTrue uses 24-bit colour.
	DepthTrue
)

// DetectDepth picks a colour depth from the environment. NO_COLOR wins;
// a non-terminal gets no colour.
func DetectDepth(isTerminal bool, getenv func(string) string) ColorDepth {
	if !isTerminal || getenv("NO_COLOR") != "" || getenv("TERM") == "dumb" {
		return DepthNone
	}
	switch strings.ToLower(getenv("COLORTERM")) {
	case "truecolor", "24bit":
		return DepthTrue
	}
	return Depth256
}

const reset = "\x1b[0m"

// Sequence returns the SGR escape sequence that starts the style, or ""
// when the style or depth draws nothing.
func (s Style) Sequence(depth ColorDepth) string {
	if depth == DepthNone || s.IsZero() {
		return ""
	}
	var params []string
	if s.Bold {
		params = append(params, "1")
	}
	if s.Italic {
		params = append(params, "3")
	}
	if s.Underline {
		params = append(params, "4")
	}
	if s.HasForeground {
		if depth == DepthTrue {
			r, g, b := s.Foreground.RGB255()
			params = append(params, "38", "2", strconv.Itoa(int(r)), strconv.Itoa(int(g)), strconv.Itoa(int(b)))
		} else {
			params = append(params, "38", "5", strconv.Itoa(Nearest256(s.Foreground)))
		}
	}
	return "\x1b[" + strings.Join(params, ";") + "m"
}

// Paint wraps text in the style's escape sequences.
func (s Style) Paint(text string, depth ColorDepth) string {
	seq := s.Sequence(depth)
	if seq == "" || text == "" {
		return text
	}
	return seq + text + reset
}

// RenderLine paints the tokens of one line.
func (t *Theme) RenderLine(toks []lexer.Token, depth ColorDepth) string {
	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(t.StyleForToken(tok.Type()).Paint(tok.Text, depth))
	}
	return b.String()
}

// cubeLevels are the channel values of the xterm 6x6x6 colour cube.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

var palette256 = func() [240]colorful.Color {
	var p [240]colorful.Color
	for i := 0; i < 216; i++ {
		p[i] = rgb(cubeLevels[i/36], cubeLevels[(i/6)%6], cubeLevels[i%6])
	}
	for i := 0; i < 24; i++ {
		v := uint8(8 + 10*i)
		p[216+i] = rgb(v, v, v)
	}
	return p
}()

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Nearest256 returns the xterm palette index (16-255) perceptually closest
// to c.
func Nearest256(c colorful.Color) int {
	best, bestDist := 0, -1.0
	for i, p := range palette256 {
		if d := c.DistanceLab(p); bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return 16 + best
}
