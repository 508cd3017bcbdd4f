// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tinyframe

// putBE and getBE encode/decode a configurable-width (1, 2, or 4 byte)
// big-endian unsigned field. Unlike the teacher's framer, which only ever
// needs encoding/binary's fixed Uint16/Uint64 helpers because its length
// prefix has exactly two encodings, TinyFrame's id/len/type widths are each
// independently configurable, so the helpers below work byte-at-a-time
// against a caller-supplied scratch slice — the same "scratch array, fill
// left to right" technique as internal.go's readStream/writeStream header
// handling, generalized from one field to three.
func putBE(dst []byte, width int, v uint64) {
	for i := 0; i < width; i++ {
		dst[width-1-i] = byte(v >> uint(8*i))
	}
}

func getBE(src []byte, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v
}

// headerLen returns the number of wire bytes occupied by id+len+type,
// excluding any SOF byte and excluding checksums.
func (tf *TF) headerLen() int {
	return tf.cfg.idBytes + tf.cfg.lenBytes + tf.cfg.typeBytes
}
