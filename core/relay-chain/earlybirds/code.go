package earlybirds

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const codeBytes = 4

// generateCode derives a short registration code the host can share. A
// collision with an existing code bumps the salt. Callers hold c.mu.
func (c *EarlyBirds) generateCode(msg Msg, id uint64, title string) string {
	for salt := uint64(0); ; salt++ {
		digest := crypto.Keccak256(
			c.address.Bytes(),
			word(id),
			msg.Sender.Bytes(),
			word(msg.BlockNumber),
			[]byte(title),
			word(salt),
		)
		code := strings.ToUpper(hex.EncodeToString(digest[:codeBytes]))
		if _, taken := c.codes[code]; !taken {
			return code
		}
	}
}

// word encodes n as a 32-byte big-endian word, as abi.encodePacked does for uint256.
func word(n uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(n).Bytes(), 32)
}

// NormalizeCode trims and upper-cases a user-supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
