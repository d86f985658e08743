// Package signer derives the request signature expected by the Lingxing open API.
//
// The signature is computed as:
//
//	canonical = sorted "k=v" pairs joined with "&" (empty-string values dropped)
//	digest    = upper-case hex MD5 of canonical
//	sign      = base64(AES-128-ECB-PKCS7(digest, key=seed padded/truncated to 16 bytes))
package signer

import (
	"crypto/aes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const keySize = 16

// Sign returns the signature for params using seed as the AES key material.
func Sign(params map[string]any, seed string) (string, error) {
	digest := Digest(params)

	block, err := aes.NewCipher(Key(seed))
	if err != nil {
		return "", fmt.Errorf("signer: init cipher: %w", err)
	}

	plain := pkcs7Pad([]byte(digest), block.BlockSize())
	out := make([]byte, len(plain))
	// ECB: every block is encrypted independently with the same key.
	for i := 0; i < len(plain); i += block.BlockSize() {
		block.Encrypt(out[i:i+block.BlockSize()], plain[i:i+block.BlockSize()])
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Digest returns the upper-case hex MD5 of the canonical parameter string.
func Digest(params map[string]any) string {
	sum := md5.Sum([]byte(Canonical(params)))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Canonical builds the "k1=v1&k2=v2" string that is hashed. Keys are sorted by
// byte order and only empty-string values are dropped.
func Canonical(params map[string]any) string {
	keys := make([]string, 0, len(params))
	values := make(map[string]string, len(params))
	for k, v := range params {
		s := Stringify(v)
		if s == "" {
			continue
		}
		keys = append(keys, k)
		values[k] = s
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(values[k])
	}
	return b.String()
}

// Stringify renders a parameter value the way it takes part in the signature.
// nil is kept as the literal "null"; it is not treated as empty.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// NormalizeForSign prepares body fields for signing: booleans become their
// lower-case literals and nil becomes empty, so it drops out of the signature.
func NormalizeForSign(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			out[k] = ""
			continue
		}
		out[k] = Stringify(v)
	}
	return out
}

// Key derives the 16-byte AES key from seed: NUL-padded when short, truncated when long.
func Key(seed string) []byte {
	key := make([]byte, keySize)
	copy(key, seed)
	return key
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out
}
