package service

import (
	"crypto/rand"
	"fmt"
)

// Bảng mã base32 không nhầm lẫn khi đọc tại quầy (bỏ 0/1/8 vs O/I/B)
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ2345679"

const codeLength = 12

// Bội lớn nhất của len(codeAlphabet) dưới 256; byte từ ngưỡng này trở lên
// bị resample để phân phối ký tự đều tuyệt đối, không lệch modulo.
const unbiasedByteLimit = byte(256 - 256%len(codeAlphabet))

// generateCode sinh redemption code 12 ký tự từ crypto/rand.
// Uniqueness được đảm bảo bằng collision check ở tầng trên, không phải ở đây.
func generateCode() (string, error) {
	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)

	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate redemption code: %w", err)
		}
		for _, b := range buf {
			if b >= unbiasedByteLimit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}

	return string(out), nil
}
