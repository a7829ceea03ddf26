package funcs

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"  //nolint:gosec
	"crypto/rand"
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"log/slog"
	"strings"

	"github.com/ardnew/atexpr/lang"
)

var hashes = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

var digests = map[string]func([]byte) string{
	"hex":       hex.EncodeToString,
	"base64":    base64.StdEncoding.EncodeToString,
	"base64url": base64.RawURLEncoding.EncodeToString,
}

func cryptoFuncs(*config) []*lang.Func {
	return []*lang.Func{
		{
			Name:  "hash",
			Usage: "HASH(s, [alg=sha256], [digest=hex])",
			Call: func(_ context.Context, args []any) (any, error) {
				return digest(text(args, 0), textOr(args, 1, "sha256"), textOr(args, 2, "hex"))
			},
		},
		{
			Name:  "encrypt",
			Usage: "ENCRYPT(alg, key, s) returns hex \"iv:ciphertext\" (aes-{128,192,256}-{cbc,ctr})",
			Call: func(_ context.Context, args []any) (any, error) {
				if err := requireArgs("encrypt", args, 3); err != nil {
					return nil, err
				}

				return encrypt(text(args, 0), text(args, 1), []byte(text(args, 2)))
			},
		},
		{
			Name:  "decrypt",
			Usage: "DECRYPT(alg, key, \"iv:ciphertext\")",
			Call: func(_ context.Context, args []any) (any, error) {
				if err := requireArgs("decrypt", args, 3); err != nil {
					return nil, err
				}

				plain, err := decrypt(text(args, 0), text(args, 1), text(args, 2))
				if err != nil {
					return nil, err
				}

				return string(plain), nil
			},
		},
	}
}

func digest(s, alg, encoding string) (string, error) {
	newHash, ok := hashes[strings.ToLower(alg)]
	if !ok {
		return "", ErrAlgorithm.Detail(alg).With(slog.String("algorithm", alg))
	}

	encode, ok := digests[strings.ToLower(encoding)]
	if !ok {
		return "", ErrArgument.Detail("digest " + encoding).
			With(slog.String("digest", encoding))
	}

	h := newHash()
	h.Write([]byte(s))

	return encode(h.Sum(nil)), nil
}

// cipherSpec is a parsed algorithm name such as "aes-256-cbc".
type cipherSpec struct {
	keySize int
	mode    string
}

func parseCipher(alg string) (cipherSpec, error) {
	name := strings.ToLower(alg)

	parts := strings.Split(name, "-")
	if len(parts) != 3 || parts[0] != "aes" {
		return cipherSpec{}, ErrAlgorithm.Detail(alg)
	}

	spec := cipherSpec{mode: parts[2]}

	switch parts[1] {
	case "128":
		spec.keySize = 16
	case "192":
		spec.keySize = 24
	case "256":
		spec.keySize = 32
	default:
		return cipherSpec{}, ErrAlgorithm.Detail(alg)
	}

	if spec.mode != "cbc" && spec.mode != "ctr" {
		return cipherSpec{}, ErrAlgorithm.Detail(alg)
	}

	return spec, nil
}

// keyBytes accepts a key given either as raw text of the exact key size or
// as hex encoding of it.
func (c cipherSpec) keyBytes(key string) ([]byte, error) {
	if len(key) == c.keySize {
		return []byte(key), nil
	}

	if len(key) == 2*c.keySize {
		if b, err := hex.DecodeString(key); err == nil {
			return b, nil
		}
	}

	return nil, ErrArgument.Detail("key must be " +
		lang.Stringify(c.keySize) + " bytes or their hex encoding")
}

func (c cipherSpec) block(key string) (cipher.Block, error) {
	k, err := c.keyBytes(key)
	if err != nil {
		return nil, err
	}

	return aes.NewCipher(k)
}

func encrypt(alg, key string, plain []byte) (string, error) {
	spec, err := parseCipher(alg)
	if err != nil {
		return "", err
	}

	block, err := spec.block(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	var out []byte

	switch spec.mode {
	case "cbc":
		out = pad(plain, aes.BlockSize)
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, out)

	case "ctr":
		out = make([]byte, len(plain))
		cipher.NewCTR(block, iv).XORKeyStream(out, plain)
	}

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

func decrypt(alg, key, payload string) ([]byte, error) {
	spec, err := parseCipher(alg)
	if err != nil {
		return nil, err
	}

	block, err := spec.block(key)
	if err != nil {
		return nil, err
	}

	ivHex, dataHex, ok := strings.Cut(payload, ":")
	if !ok {
		return nil, ErrDecrypt.Detail(`expected "iv:ciphertext"`)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return nil, ErrDecrypt.Detail("invalid iv")
	}

	data, err := hex.DecodeString(dataHex)
	if err != nil {
		return nil, ErrDecrypt.Wrap(err)
	}

	switch spec.mode {
	case "cbc":
		if len(data) == 0 || len(data)%aes.BlockSize != 0 {
			return nil, ErrDecrypt.Detail("ciphertext is not a multiple of the block size")
		}

		cipher.NewCBCDecrypter(block, iv).CryptBlocks(data, data)

		return unpad(data, aes.BlockSize)

	default:
		cipher.NewCTR(block, iv).XORKeyStream(data, data)

		return data, nil
	}
}

// pad applies PKCS#7 padding.
func pad(b []byte, size int) []byte {
	n := size - len(b)%size

	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrDecrypt.Detail("invalid padding")
	}

	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrDecrypt.Detail("invalid padding")
		}
	}

	return b[:len(b)-n], nil
}
