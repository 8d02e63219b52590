package domain

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

var (
	ErrMalformedPayload = errors.New("malformed qr payload")
	ErrUnknownAsset     = errors.New("qr payload refers to unknown asset")
)

// QRPrefix is the fixed leading token of every printed label payload.
const QRPrefix = "ITA"

// EncodeQRPayload builds the string embedded in a printed label:
// ITA-<asset_id>-<crc32 of the asset id in lowercase hex>.
func EncodeQRPayload(assetID string) string {
	return fmt.Sprintf("%s-%s-%08x", QRPrefix, assetID, crc32.ChecksumIEEE([]byte(assetID)))
}

// ParseQRPayload extracts the asset id from a scanned payload. The checksum
// is recomputed and compared, so a corrupted scan fails here rather than as
// a lookup miss.
func ParseQRPayload(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, "-")
	if len(parts) != 3 || parts[0] != QRPrefix {
		return "", ErrMalformedPayload
	}
	assetID, sum := parts[1], parts[2]
	if !ValidAssetID(assetID) {
		return "", ErrMalformedPayload
	}
	if sum != fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(assetID))) {
		return "", ErrMalformedPayload
	}
	return assetID, nil
}
