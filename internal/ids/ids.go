// Package ids issues room codes and player/item identifiers.
package ids

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// CodeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CodeLength = 6

type Generator interface {
	RoomCode() (string, error)
	PlayerID() string
	ItemID() string
}

// Random is the production Generator.
type Random struct{}

func (Random) RoomCode() (string, error) {
	code := make([]byte, CodeLength)
	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		code[i] = CodeAlphabet[num.Int64()]
	}
	return string(code), nil
}

func (Random) PlayerID() string { return uuid.NewString() }

func (Random) ItemID() string { return "item-" + uuid.NewString() }
