package transcoder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FrameRate is a rational frames-per-second value as reported by ffprobe.
type FrameRate struct {
	Num int
	Den int
}

// ParseFrameRate accepts "30000/1001", "25/1", "30" and decimal forms like
// "29.97". A zero numerator or denominator is rejected.
func ParseFrameRate(s string) (FrameRate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FrameRate{}, fmt.Errorf("empty frame rate")
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return FrameRate{}, fmt.Errorf("invalid frame rate %q: %w", s, err)
		}
		d, err := strconv.Atoi(strings.TrimSpace(den))
		if err != nil {
			return FrameRate{}, fmt.Errorf("invalid frame rate %q: %w", s, err)
		}
		r := FrameRate{Num: n, Den: d}
		if !r.Valid() {
			return FrameRate{}, fmt.Errorf("invalid frame rate %q", s)
		}
		return r.reduce(), nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		r := FrameRate{Num: n, Den: 1}
		if !r.Valid() {
			return FrameRate{}, fmt.Errorf("invalid frame rate %q", s)
		}
		return r, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return FrameRate{}, fmt.Errorf("invalid frame rate %q", s)
	}
	// NTSC rates are conventionally written as decimals.
	for _, base := range []int{24, 30, 60, 120} {
		if math.Abs(f-float64(base*1000)/1001) < 0.005 {
			return FrameRate{Num: base * 1000, Den: 1001}, nil
		}
	}
	return FrameRate{Num: int(math.Round(f * 1000)), Den: 1000}.reduce(), nil
}

// Valid reports whether both terms are positive.
func (r FrameRate) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Float returns the rate as frames per second.
func (r FrameRate) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// String formats the rate the way ffmpeg accepts it on the command line.
func (r FrameRate) String() string {
	if r.Den == 1 {
		return strconv.Itoa(r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r FrameRate) reduce() FrameRate {
	g := gcd(r.Num, r.Den)
	if g <= 1 {
		return r
	}
	return FrameRate{Num: r.Num / g, Den: r.Den / g}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
