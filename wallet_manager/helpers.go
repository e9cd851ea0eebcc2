package wallet_manager

import "encoding/hex"

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}
