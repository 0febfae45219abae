package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

const (
	numberPrefix   = "PF-"
	numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var ErrInvalidNumber = errors.New("invalid order number")

// NumberGenerator derives the public order number from the order id, so
// nothing extra has to be stored and sequential ids are not exposed.
type NumberGenerator struct {
	h *hashids.HashID
}

func NewNumberGenerator(salt string) (*NumberGenerator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 6
	hd.Alphabet = numberAlphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("order numbers: %w", err)
	}
	return &NumberGenerator{h: h}, nil
}

func (g *NumberGenerator) Encode(id int64) string {
	s, err := g.h.EncodeInt64([]int64{id})
	if err != nil {
		// only negative ids fail to encode
		return ""
	}
	return numberPrefix + s
}

func (g *NumberGenerator) Decode(number string) (int64, error) {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(number)), numberPrefix)
	ids, err := g.h.DecodeInt64WithError(s)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalidNumber
	}
	return ids[0], nil
}
