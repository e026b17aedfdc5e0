package tarfile

import "fmt"

// buildHeader returns a valid 512-byte ustar header block for a member
// with the given name, typeflag, linkname and size, with a correct
// checksum filled in.
func buildHeader(name string, typeflag byte, linkname string, size int64) Block {
	var b Block
	copy(b[offName:], name)
	copy(b[offLinkname:], linkname)
	b[offTypeflag] = typeflag
	copy(b[offSize:], octalField(size))
	copy(b[offMagic:], "ustar")
	b[offMagic+lenMagic] = ' '
	fillChecksum(&b)
	return b
}

func fillChecksum(b *Block) {
	for i := offChksum; i < offChksum+lenChksum; i++ {
		b[i] = ' '
	}
	var sum int
	for _, c := range b {
		sum += int(c)
	}
	s := fmt.Sprintf("%06o\x00 ", sum)
	copy(b[offChksum:], s)
}
