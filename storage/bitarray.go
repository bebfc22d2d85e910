package storage

// The functions in this file read and write fixed-width unsigned integers at arbitrary bit offsets of a
// flat byte buffer. Bits are stored little-endian: bit i of the stream is bit i%8 of byte i/8, and the
// lowest bit of a value is written first.

// MaxEntryWidth is the widest value the codec is able to pack.
const MaxEntryWidth = 31

// RequiredBytes returns the amount of bytes needed to hold count values of width bits each.
func RequiredBytes(count, width int) int {
	return (count*width + 7) >> 3
}

// ValueAt extracts the width-bit value stored at the index passed. A width of 0 always yields 0 and does
// not touch the buffer.
func ValueAt(data []byte, width, index int) int {
	if width == 0 {
		return 0
	}
	bit := index * width
	value, read := 0, 0
	for read < width {
		b, off := (bit+read)>>3, uint((bit+read)&7)
		n := 8 - int(off)
		if n > width-read {
			n = width - read
		}
		value |= (int(data[b]>>off) & (1<<uint(n) - 1)) << uint(read)
		read += n
	}
	return value
}

// SetValueAt writes value, masked to width bits, at the index passed. The buffer must already be large
// enough to hold the value.
func SetValueAt(data []byte, value, width, index int) {
	if width == 0 {
		return
	}
	value &= 1<<uint(width) - 1
	bit := index * width
	written := 0
	for written < width {
		b, off := (bit+written)>>3, uint((bit+written)&7)
		n := 8 - int(off)
		if n > width-written {
			n = width - written
		}
		mask := byte((1<<uint(n) - 1) << off)
		data[b] = data[b]&^mask | byte((value>>uint(written))<<off)&mask
		written += n
	}
}

// Fill allocates a buffer holding count repetitions of value at width bits each.
func Fill(value, width, count int) []byte {
	data := make([]byte, RequiredBytes(count, width))
	if width == 0 || value == 0 {
		return data
	}
	for i := 0; i < count; i++ {
		SetValueAt(data, value, width, i)
	}
	return data
}

// Repack reads count values at oldWidth from data and writes them at newWidth into a freshly sized
// buffer, in index order.
func Repack(data []byte, oldWidth, newWidth, count int) []byte {
	repacked := make([]byte, RequiredBytes(count, newWidth))
	if oldWidth == 0 || newWidth == 0 {
		return repacked
	}
	for i := 0; i < count; i++ {
		SetValueAt(repacked, ValueAt(data, oldWidth, i), newWidth, i)
	}
	return repacked
}
