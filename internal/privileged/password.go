package privileged

import (
	"bytes"
	"io"
	"unicode/utf8"
)

// Password is a typed secret. It only grows by appending and shrinks by
// backspace, and it never hands out its bytes as a string. Every buffer it
// stops using is zeroed, including the old array when it grows.
type Password struct {
	buf []byte
}

// NewPassword returns an empty password buffer.
func NewPassword() *Password {
	return &Password{buf: make([]byte, 0, 64)}
}

// Append adds typed or pasted bytes.
func (p *Password) Append(b []byte) {
	if len(p.buf)+len(b) > cap(p.buf) {
		grown := make([]byte, len(p.buf), 2*(len(p.buf)+len(b)))
		copy(grown, p.buf)
		wipe(p.buf[:cap(p.buf)])
		p.buf = grown
	}
	p.buf = append(p.buf, b...)
}

// Backspace removes the last character.
func (p *Password) Backspace() {
	if len(p.buf) == 0 {
		return
	}
	_, size := utf8.DecodeLastRune(p.buf)
	tail := p.buf[len(p.buf)-size:]
	wipe(tail)
	p.buf = p.buf[:len(p.buf)-size]
}

// Len is the number of characters typed.
func (p *Password) Len() int {
	return utf8.RuneCount(p.buf)
}

// Empty reports whether nothing has been typed.
func (p *Password) Empty() bool {
	return len(p.buf) == 0
}

// Clear zeroes the whole backing array and empties the buffer.
func (p *Password) Clear() {
	wipe(p.buf[:cap(p.buf)])
	p.buf = p.buf[:0]
}

// String never reveals the secret, so a stray %v or %s stays harmless.
func (p *Password) String() string {
	return "[redacted]"
}

// GoString covers %#v.
func (p *Password) GoString() string {
	return "privileged.Password{[redacted]}"
}

// stdin returns the bytes sudo -S expects: the password and a newline.
// The reader aliases the buffer, so it must be consumed before Clear.
func (p *Password) stdin() io.Reader {
	return io.MultiReader(bytes.NewReader(p.buf), bytes.NewReader([]byte{'\n'}))
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
