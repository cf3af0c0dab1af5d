package orders

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	OrderNumberPrefix = "ORD"
	suffixAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffixLen         = 3
	// largest multiple of 36 that fits a byte; bytes at or above it are redrawn
	suffixCutoff = 256 - 256%len(suffixAlphabet)
)

// Generator produces ORD-<unix millis base36>-<3 random [0-9A-Z]>.
// The time part never repeats within one Generator, so a burst inside the
// same millisecond still yields distinct numbers; across processes the
// random suffix and the orders.order_number unique index are the backstop.
type Generator struct {
	Now  func() time.Time
	Rand io.Reader

	mu   sync.Mutex
	last int64
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now, Rand: rand.Reader}
}

// Next panics if the entropy source fails.
func (g *Generator) Next() string {
	g.mu.Lock()
	ms := g.Now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	var sb strings.Builder
	sb.Grow(len(OrderNumberPrefix) + 16)
	sb.WriteString(OrderNumberPrefix)
	sb.WriteByte('-')
	sb.WriteString(strconv.FormatInt(ms, 36))
	sb.WriteByte('-')
	var buf [8]byte
	for n := 0; n < suffixLen; {
		if _, err := io.ReadFull(g.Rand, buf[:]); err != nil {
			panic(fmt.Sprintf("order number entropy: %v", err))
		}
		for _, b := range buf {
			if int(b) >= suffixCutoff {
				continue
			}
			sb.WriteByte(suffixAlphabet[int(b)%len(suffixAlphabet)])
			if n++; n == suffixLen {
				break
			}
		}
	}
	return sb.String()
}
