package util

import (
	"fmt"
	"math"
)

// FloatToTimestamp renders seconds as the HH:MM:SS.mmm form ffmpeg expects
// for -ss/-t, rounded to the nearest millisecond
func FloatToTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))

	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3600000,
		ms/60000%60,
		ms/1000%60,
		ms%1000)
}
