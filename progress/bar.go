package progress

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

// Bar renders a unit-counting progress bar, e.g. over chunks written.
type Bar struct {
	message string
	unit    string

	maxValue     int64
	currentValue atomic.Int64
}

func NewBar(message, unit string, maxValue int64) *Bar {
	return &Bar{message: message, unit: unit, maxValue: maxValue}
}

func (b *Bar) String() string {
	termWidth, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		termWidth = 80
	}

	current := b.currentValue.Load()

	var pre, mid, suf strings.Builder

	if b.message != "" {
		fmt.Fprintf(&pre, "%s ", strings.TrimSpace(b.message))
	}
	fmt.Fprintf(&pre, "%3.0f%% ", math.Floor(b.percent(current)))

	fmt.Fprintf(&suf, " (%d/%d %s)", current, b.maxValue, b.unit)

	// 2 boundary characters and 1 trailing space
	f := termWidth - pre.Len() - suf.Len() - 3
	n := int(float64(f) * b.percent(current) / 100)

	if f > 0 {
		mid.WriteString("▕")
		mid.WriteString(strings.Repeat("█", n))
		if f-n > 0 {
			mid.WriteString(strings.Repeat(" ", f-n))
		}
		mid.WriteString("▏")
	}

	return pre.String() + mid.String() + suf.String()
}

func (b *Bar) Set(value int64) {
	if value >= b.maxValue {
		value = b.maxValue
	}

	b.currentValue.Store(value)
}

func (b *Bar) percent(current int64) float64 {
	if b.maxValue > 0 {
		return float64(current) / float64(b.maxValue) * 100
	}

	return 0
}
