package credential

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

func fastPolicy() Policy { return New(bcrypt.MinCost) }

func TestDeriveAndVerify(t *testing.T) {
	p := fastPolicy()

	for _, s := range []string{"123456", "correct horse battery staple", "sênha-çom-acento", strings.Repeat("x", 72)} {
		c1, err := p.Derive(s)
		require.NoError(t, err)
		c2, err := p.Derive(s)
		require.NoError(t, err)

		require.NotEqual(t, s, c1)
		require.NotEqual(t, c1, c2, "salt must differ per call")
		require.True(t, Verify(s, c1))
		require.True(t, Verify(s, c2))
		require.False(t, Verify(s+"!", c1))
	}
}

func TestDerive_Bounds(t *testing.T) {
	p := fastPolicy()

	cases := []struct {
		secret string
		want   error
	}{
		{"", ErrSecretEmpty},
		{"12345", ErrSecretTooShort},
		{strings.Repeat("a", 73), ErrSecretTooLong},
		// 72 个字符但超过 72 字节
		{strings.Repeat("é", 72), ErrSecretTooLong},
	}
	for _, tc := range cases {
		_, err := p.Derive(tc.secret)
		require.ErrorIs(t, err, tc.want)
		require.ErrorIs(t, err, ErrInvalidSecret)
		if tc.secret != "" {
			require.NotContains(t, err.Error(), tc.secret)
		}
	}

	require.NoError(t, CheckSecret("123456"))
	require.NoError(t, CheckSecret(strings.Repeat("é", 36)))
}

func TestIsAlreadyDerived(t *testing.T) {
	p := fastPolicy()
	c, err := p.Derive("123456")
	require.NoError(t, err)

	require.True(t, IsAlreadyDerived(c))
	require.True(t, IsAlreadyDerived(legacyArgon2id(t, "123456")))
	require.True(t, IsAlreadyDerived("$2y$"+c[4:]))

	require.False(t, IsAlreadyDerived("plaintext"))
	require.False(t, IsAlreadyDerived(""))
	require.False(t, IsAlreadyDerived("$2y$10$short"))
	require.False(t, IsAlreadyDerived("$argon2id$v=19$m=abc$$"))
}

func TestSet_SkipsAlreadyDerived(t *testing.T) {
	p := fastPolicy()
	c, err := p.Derive("123456")
	require.NoError(t, err)

	again, err := p.Set(c)
	require.NoError(t, err)
	require.Equal(t, c, again)
	require.True(t, Verify("123456", again))

	fresh, err := p.Set("654321")
	require.NoError(t, err)
	require.NotEqual(t, "654321", fresh)
	require.True(t, Verify("654321", fresh))

	_, err = p.Set("123")
	require.True(t, errors.Is(err, ErrInvalidSecret))
}

func TestVerify_Malformed(t *testing.T) {
	for _, c := range []string{"", "123456", "$2a$10$", "$argon2id$v=19$m=1,t=1,p=1$!!$!!", "$argon2id$v=19$m=99999999,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5a2V5a2V5"} {
		require.NotPanics(t, func() {
			require.False(t, Verify("123456", c))
		})
	}
}

func TestVerify_LegacyArgon2id(t *testing.T) {
	enc := legacyArgon2id(t, "migrated-secret")
	require.True(t, Verify("migrated-secret", enc))
	require.False(t, Verify("other-secret", enc))
}

func TestPolicy_CostFallback(t *testing.T) {
	require.Equal(t, bcrypt.DefaultCost, Policy{}.cost())
	require.Equal(t, bcrypt.DefaultCost, New(99).cost())
	require.Equal(t, 12, New(12).cost())
}

func legacyArgon2id(t *testing.T, secret string) string {
	t.Helper()
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	require.NoError(t, err)
	key := argon2.IDKey([]byte(secret), salt, 1, 8*1024, 1, 32)
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 8*1024, 1, 1, b64.EncodeToString(salt), b64.EncodeToString(key))
}
