package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var equipmentSeq atomic.Uint32

// lastDigits returns the final n digits of the millisecond timestamp t.
func lastDigits(t time.Time, n int) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > n {
		ms = ms[len(ms)-n:]
	}
	return ms
}

// NewEquipmentCode returns a code like EQ-482913-007.
func NewEquipmentCode(now time.Time) string {
	seq := equipmentSeq.Add(1) % 1000
	return fmt.Sprintf("EQ-%s-%03d", lastDigits(now, 6), seq)
}

// NewInspectionCode returns a code like INSP-74829130.
func NewInspectionCode(now time.Time) string {
	return "INSP-" + lastDigits(now, 8)
}

// NewNCRCode returns a code like NCR-74829130.
func NewNCRCode(now time.Time) string {
	return "NCR-" + lastDigits(now, 8)
}

// NewPublicCode returns a random verification code like 7KQ2ZD-M4XA.
func NewPublicCode() (string, error) {
	a, err := randomBase36(6)
	if err != nil {
		return "", err
	}
	b, err := randomBase36(4)
	if err != nil {
		return "", err
	}
	return a + "-" + b, nil
}

func randomBase36(n int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		sb.WriteByte(base36Alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
