package credential

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// 只用于校验迁移进来的 argon2 凭据，新凭据一律 bcrypt。

var errMalformedArgon2 = errors.New("malformed argon2 hash")

type argon2Hash struct {
	variant     string // argon2i / argon2id
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// 攻击者可控的参数上限，防止校验时吃光内存/CPU
const (
	maxArgon2MemoryKiB  = 256 * 1024
	maxArgon2Iterations = 16
	maxArgon2Threads    = 16
)

// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func decodeArgon2(encoded string) (argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return argon2Hash{}, errMalformedArgon2
	}
	if parts[1] != "argon2id" && parts[1] != "argon2i" {
		return argon2Hash{}, errMalformedArgon2
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return argon2Hash{}, errMalformedArgon2
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return argon2Hash{}, errMalformedArgon2
	}
	if mem == 0 || it == 0 || par == 0 ||
		mem > maxArgon2MemoryKiB || it > maxArgon2Iterations || par > maxArgon2Threads {
		return argon2Hash{}, errMalformedArgon2
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 || len(salt) > 64 {
		return argon2Hash{}, errMalformedArgon2
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 128 {
		return argon2Hash{}, errMalformedArgon2
	}

	return argon2Hash{
		variant:     parts[1],
		memoryKiB:   mem,
		iterations:  it,
		parallelism: uint8(par), // #nosec G115 -- bounded by maxArgon2Threads
		salt:        salt,
		key:         key,
	}, nil
}

func verifyArgon2(secret, encoded string) bool {
	h, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}
	keyLen := uint32(len(h.key)) // #nosec G115 -- bounded by decodeArgon2
	var got []byte
	if h.variant == "argon2id" {
		got = argon2.IDKey([]byte(secret), h.salt, h.iterations, h.memoryKiB, h.parallelism, keyLen)
	} else {
		got = argon2.Key([]byte(secret), h.salt, h.iterations, h.memoryKiB, h.parallelism, keyLen)
	}
	return subtle.ConstantTimeCompare(got, h.key) == 1
}
