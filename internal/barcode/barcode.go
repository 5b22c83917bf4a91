// Package barcode decodes the keystroke stream of a USB barcode scanner
// acting as a keyboard. Scanners type an entire code in rapid bursts followed
// by Enter; human typing is slower than the inter-key window and is discarded.
package barcode

import (
	"time"
)

const (
	// InterKeyWindow is the maximum gap between two keystrokes of one scan.
	InterKeyWindow = 100 * time.Millisecond
	// MinLength is the shortest buffer accepted as a barcode.
	MinLength = 3
)

type Decoder struct {
	buf     []rune
	lastKey time.Time
}

func NewDecoder() *Decoder {
	return &Decoder{buf: make([]rune, 0, 16)}
}

// Feed consumes one key event. It returns the decoded barcode and true when
// an Enter key completes a buffer of at least MinLength characters. Any gap
// longer than InterKeyWindow resets the buffer first.
func (d *Decoder) Feed(key string, at time.Time) (string, bool) {
	if !d.lastKey.IsZero() && at.Sub(d.lastKey) > InterKeyWindow {
		d.buf = d.buf[:0]
	}
	d.lastKey = at

	if key == "Enter" {
		code := string(d.buf)
		d.buf = d.buf[:0]
		if len(code) >= MinLength {
			return code, true
		}
		return "", false
	}

	// Only single printable characters contribute; control keys are ignored.
	runes := []rune(key)
	if len(runes) == 1 {
		d.buf = append(d.buf, runes[0])
	}
	return "", false
}

// Reset discards any partial buffer.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.lastKey = time.Time{}
}
