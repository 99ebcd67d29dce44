package dmg

import (
	"encoding/hex"
	"strings"
)

// HexUpper renders data as an uppercase hex string, matching the
// teacher's ConvertDataToHexUpper, used for displaying checksum and
// segment-id payloads in inspect output.
func HexUpper(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}
