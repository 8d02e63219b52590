// Package labels renders printable QR labels for physical asset tags.
package labels

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/panupunsiamwishco-dotcom/it-asset-tracker/internal/core/domain"
)

const defaultSize = 256

// PNG renders the QR label for an asset id. The encoded payload carries the
// checksum the resolver verifies on scan.
func PNG(assetID string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultSize
	}
	png, err := qrcode.Encode(domain.EncodeQRPayload(assetID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr label for %s: %w", assetID, err)
	}
	return png, nil
}
