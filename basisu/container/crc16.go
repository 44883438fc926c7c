package container

// CRC16 updates crc with p using the checksum stored in .basis headers and slice descriptors
// (CRC-16/CCITT polynomial, bit-reflected update, inverted on entry and exit).
//
// Pass 0 to start a new checksum.
func CRC16(crc uint16, p []byte) uint16 {
	crc = ^crc
	for _, b := range p {
		q := uint16(b) ^ (crc >> 8)
		k := (q >> 4) ^ q
		crc = (crc << 8) ^ k ^ (k << 5) ^ (k << 12)
	}
	return ^crc
}
