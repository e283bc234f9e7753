// Package credential turns raw secrets into stored credentials and checks
// presented secrets against them. Nothing here keeps state between calls.
package credential

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinSecretLen = 6
	MaxSecretLen = 72

	// bcrypt 只接受 72 字节输入，多字节字符可能先撞到这个上限
	maxSecretBytes = 72
)

// Policy 持有派生参数；零值可用（DefaultCost）。
type Policy struct {
	Cost int
}

func New(cost int) Policy { return Policy{Cost: cost} }

func (p Policy) cost() int {
	if p.Cost < bcrypt.MinCost || p.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return p.Cost
}

// CheckSecret 是明文长度的唯一判定，注册校验和 Derive 共用。
func CheckSecret(secret string) error {
	n := utf8.RuneCountInString(secret)
	switch {
	case n == 0:
		return ErrSecretEmpty
	case n < MinSecretLen:
		return ErrSecretTooShort
	case n > MaxSecretLen || len(secret) > maxSecretBytes:
		return ErrSecretTooLong
	}
	return nil
}

// Derive 用 bcrypt 派生凭据，每次调用随机盐，同一明文两次结果不同。
// CPU 密集，调用方不要在持锁时调用。
func (p Policy) Derive(secret string) (string, error) {
	if err := CheckSecret(secret); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), p.cost())
	if err != nil {
		return "", fmt.Errorf("derive credential: %w", err)
	}
	return string(b), nil
}

// Set 是所有写凭据路径的入口：已派生的值原样保留，避免二次哈希把账号锁死。
func (p Policy) Set(value string) (string, error) {
	if IsAlreadyDerived(value) {
		return value, nil
	}
	return p.Derive(value)
}

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

func isBcrypt(v string) bool {
	for _, pfx := range bcryptPrefixes {
		if strings.HasPrefix(v, pfx) {
			return true
		}
	}
	return false
}

func isArgon2(v string) bool {
	return strings.HasPrefix(v, "$argon2id$") || strings.HasPrefix(v, "$argon2i$")
}

// IsAlreadyDerived 识别 bcrypt / argon2 格式（前缀 + 结构能解析）。
func IsAlreadyDerived(v string) bool {
	switch {
	case isBcrypt(v):
		if len(v) != 60 {
			return false
		}
		_, err := bcrypt.Cost([]byte(v))
		return err == nil
	case isArgon2(v):
		_, err := decodeArgon2(v)
		return err == nil
	}
	return false
}

// Verify 比较明文与凭据；格式不认识或损坏时返回 false，不报错。
func Verify(secret, credential string) bool {
	switch {
	case isBcrypt(credential):
		return bcrypt.CompareHashAndPassword([]byte(credential), []byte(secret)) == nil
	case isArgon2(credential):
		return verifyArgon2(secret, credential)
	}
	return false
}
