package printer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ESC/POS command bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text alignment
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// Character size
const (
	FontNormal = 0x00
	FontDouble = 0x11
	FontTall   = 0x01
)

// Paper widths in characters
const (
	Width58mm = 32
	Width80mm = 48
)

// Document builds an ESC/POS byte stream for bar and kitchen tickets.
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument creates a document for the given character width (32 for 58mm, 48 for 80mm).
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = Width58mm
	}
	d := &Document{width: charWidth}
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// FeedLines sends n line feeds.
func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

// SetAlign sets text alignment.
func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

// SetBold enables or disables emphasized text.
func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

// SetFontSize sets the character size.
func (d *Document) SetFontSize(size byte) *Document {
	d.buf.Write([]byte{GS, '!', size})
	return d
}

// Text writes a line followed by a line feed.
func (d *Document) Text(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(LF)
	return d
}

// TextF writes a formatted line followed by a line feed.
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Separator prints a full-width rule.
func (d *Document) Separator(char byte) *Document {
	return d.Text(strings.Repeat(string(char), d.width))
}

// KeyValue prints key on the left and value flush right.
func (d *Document) KeyValue(key, value string) *Document {
	return d.Text(d.justify(key, value))
}

// ItemLine prints "qty x name" on the left and the line total flush right.
// Fractional quantities (0.5 kg, 1.5 l) keep their decimals.
func (d *Document) ItemLine(qty float64, name, total string) *Document {
	return d.Text(d.justify(FormatQuantity(qty)+"x "+name, total))
}

// PartialCut sends the partial cut command.
func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

// Bytes returns the accumulated ESC/POS byte stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

func (d *Document) justify(left, right string) string {
	spaces := d.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}

// FormatQuantity renders 3 as "3" and 1.5 as "1.5".
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
