package protocol

import (
	"crypto/aes"
	"crypto/cipher"
)

// cfb8 is 8-bit cipher feedback mode: one block encryption per byte, the
// shift register advancing by the ciphertext byte.
type cfb8 struct {
	b       cipher.Block
	reg     []byte
	out     []byte
	decrypt bool
}

// NewCFB8Encrypter returns a cipher.Stream encrypting in CFB8 mode.
// The iv must be one block long.
func NewCFB8Encrypter(b cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(b, iv, false)
}

// NewCFB8Decrypter returns a cipher.Stream decrypting in CFB8 mode.
// The iv must be one block long.
func NewCFB8Decrypter(b cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(b, iv, true)
}

func newCFB8(b cipher.Block, iv []byte, decrypt bool) *cfb8 {
	if len(iv) != b.BlockSize() {
		panic("protocol: CFB8 IV length must equal block size")
	}
	reg := make([]byte, len(iv))
	copy(reg, iv)
	return &cfb8{
		b:       b,
		reg:     reg,
		out:     make([]byte, b.BlockSize()),
		decrypt: decrypt,
	}
}

func (x *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("protocol: CFB8 output smaller than input")
	}
	last := len(x.reg) - 1
	for i, in := range src {
		x.b.Encrypt(x.out, x.reg)
		c := in ^ x.out[0]
		copy(x.reg, x.reg[1:])
		if x.decrypt {
			x.reg[last] = in
		} else {
			x.reg[last] = c
		}
		dst[i] = c
	}
}

// NewSharedSecretStreams returns the encrypting and decrypting streams for a
// connection. The game protocol uses the 16 byte shared secret as both the
// AES key and the IV.
func NewSharedSecretStreams(secret []byte) (enc, dec cipher.Stream, err error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, nil, err
	}
	return NewCFB8Encrypter(block, secret), NewCFB8Decrypter(block, secret), nil
}
