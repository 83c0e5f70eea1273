// Package orders generates the customer-facing order reference attached to a
// payment intent.
package orders

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

const prefix = "STR-"

var ErrInvalidOrderNumber = errors.New("invalid order number")

type NumberGenerator struct {
	h   *hashids.HashID
	seq atomic.Int64
	now func() time.Time
}

func NewNumberGenerator(secret string) (*NumberGenerator, error) {
	hd := hashids.NewData()
	hd.Salt = secret
	hd.MinLength = 8
	hd.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}
	return &NumberGenerator{h: h, now: time.Now}, nil
}

// Generate returns a new order number such as "STR-8XK2P9QD". Numbers are
// unique per process and sortable by issue second after decoding.
func (g *NumberGenerator) Generate() (string, error) {
	encoded, err := g.h.EncodeInt64([]int64{g.now().Unix(), g.seq.Add(1)})
	if err != nil {
		return "", fmt.Errorf("orders: encode: %w", err)
	}
	return prefix + encoded, nil
}

// Decode returns the issue time and sequence an order number was built from.
func (g *NumberGenerator) Decode(number string) (time.Time, int64, error) {
	encoded, ok := strings.CutPrefix(strings.ToUpper(strings.TrimSpace(number)), prefix)
	if !ok {
		return time.Time{}, 0, ErrInvalidOrderNumber
	}
	parts, err := g.h.DecodeInt64WithError(encoded)
	if err != nil || len(parts) != 2 {
		return time.Time{}, 0, ErrInvalidOrderNumber
	}
	return time.Unix(parts[0], 0), parts[1], nil
}
