package keydb

import (
	"encoding/binary"
	"math/bits"
)

// Generator constant of the CTR hardware key scrambler, from the boot9
// bootrom.
var generator = u128{hi: 0x1FF9E9AAC5FE0408, lo: 0x024591DC5D52768A}

// u128 is a 128-bit unsigned integer, most significant word first.
type u128 struct {
	hi, lo uint64
}

func (x u128) xor(y u128) u128 {
	return u128{hi: x.hi ^ y.hi, lo: x.lo ^ y.lo}
}

func (x u128) add(y u128) u128 {
	lo, carry := bits.Add64(x.lo, y.lo, 0)
	hi, _ := bits.Add64(x.hi, y.hi, carry)
	return u128{hi: hi, lo: lo}
}

// rol rotates x left by n bits, 0 <= n < 128.
func (x u128) rol(n uint) u128 {
	if n >= 64 {
		x.hi, x.lo = x.lo, x.hi
		n -= 64
	}
	if n == 0 {
		return x
	}
	return u128{
		hi: x.hi<<n | x.lo>>(64-n),
		lo: x.lo<<n | x.hi>>(64-n),
	}
}

func keyToU128(k Key) u128 {
	return u128{
		hi: binary.BigEndian.Uint64(k[:8]),
		lo: binary.BigEndian.Uint64(k[8:]),
	}
}

func (x u128) key() Key {
	var k Key
	binary.BigEndian.PutUint64(k[:8], x.hi)
	binary.BigEndian.PutUint64(k[8:], x.lo)
	return k
}

// scramble combines a slot's two key halves the way the CTR AES engine does:
//
//	normal = rol(rol(keyX, 2) xor keyY + generator, 87)
func scramble(keyX, keyY Key) Key {
	return keyToU128(keyX).rol(2).xor(keyToU128(keyY)).add(generator).rol(87).key()
}
