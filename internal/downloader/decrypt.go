package downloader

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/famomatic/segmux/internal/types"
)

// decryptSegment decrypts AES-128-CBC segment data in place and strips the
// PKCS#7 padding. Segments without key material pass through untouched.
func decryptSegment(seg types.Segment, data []byte) ([]byte, error) {
	if len(seg.Key) == 0 {
		return data, nil
	}
	block, err := aes.NewCipher(seg.Key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return data, nil
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("encrypted data not block aligned")
	}
	iv := seg.IV
	if len(iv) == 0 {
		iv = make([]byte, aes.BlockSize)
	}
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(data, data)

	padding := int(data[len(data)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-padding], nil
}
