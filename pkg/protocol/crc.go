package protocol

import "github.com/sigurn/crc16"

// CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF, no reflection, no final xor.
var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CRCBlock returns the CRC-16/CCITT (init 0xFFFF, no final xor) of data.
func CRCBlock(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
