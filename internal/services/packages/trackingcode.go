package packages

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCodePrefix   = "CL"
	DefaultCodeAttempts = 5

	codeAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeTimeChars = 4
	codeRandChars = 6
)

// NewTrackingCode builds prefix + 4 base36 chars of now (milliseconds) + 6
// chars drawn with intn. intn(n) must return a value in [0, n).
func NewTrackingCode(prefix string, now time.Time, intn func(n int) int) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	if len(ts) > codeTimeChars {
		ts = ts[len(ts)-codeTimeChars:]
	}
	ts = strings.Repeat("0", codeTimeChars-len(ts)) + ts

	var b strings.Builder
	b.Grow(len(prefix) + codeTimeChars + codeRandChars)
	b.WriteString(prefix)
	b.WriteString(ts)
	for i := 0; i < codeRandChars; i++ {
		b.WriteByte(codeAlphabet[intn(len(codeAlphabet))])
	}
	return b.String()
}
