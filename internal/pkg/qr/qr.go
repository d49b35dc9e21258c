package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// PNG renders a reservation token at high error correction so a scuffed
// phone screen still scans.
func PNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	q, err := qrcode.New(token, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	png, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}
