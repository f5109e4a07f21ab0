package session

import (
	"strconv"
	"strings"

	"github.com/ayusman/isharavaani/internal/detector"
)

// Serialize encodes samples into the interpretation payload: each sample's
// landmarks as "(x,y)" with two decimals joined by ",", samples joined by "|".
// Depth is not part of the payload and the encoding is not meant to be parsed back.
func Serialize(samples []detector.HandLandmarks) string {
	var sb strings.Builder
	for i := range samples {
		if i > 0 {
			sb.WriteByte('|')
		}
		for j, p := range samples[i].Points {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('(')
			sb.WriteString(formatCoord(p.X))
			sb.WriteByte(',')
			sb.WriteString(formatCoord(p.Y))
			sb.WriteByte(')')
		}
	}
	return sb.String()
}

func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}
