package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	pixCodePrefix   = "00020126580014BR.GOV.BCB.PIX0136"
	pixCodeSuffix   = "5204000053039865802BR5925RIFA DIGITAL6009SAO PAULO62070503***6304"
	pixCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	pixCodeKeyLen   = 36
)

// PixCodeGenerator produces synthetic PIX copy-and-paste codes. The codes only
// look like PIX payloads: there is no checksum and no uniqueness guarantee.
type PixCodeGenerator struct{}

// NewPixCodeGenerator creates a new PIX code generator
func NewPixCodeGenerator() *PixCodeGenerator {
	return &PixCodeGenerator{}
}

// Generate returns prefix + 36 random characters from [A-Z0-9] + suffix
func (g *PixCodeGenerator) Generate() (string, error) {
	var b strings.Builder
	b.Grow(len(pixCodePrefix) + pixCodeKeyLen + len(pixCodeSuffix))
	b.WriteString(pixCodePrefix)

	max := big.NewInt(int64(len(pixCodeAlphabet)))
	for i := 0; i < pixCodeKeyLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate pix code: %w", err)
		}
		b.WriteByte(pixCodeAlphabet[n.Int64()])
	}

	b.WriteString(pixCodeSuffix)
	return b.String(), nil
}
