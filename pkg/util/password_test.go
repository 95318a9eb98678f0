package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "empty", password: "", wantErr: ErrPasswordTooShort},
		{name: "seven characters", password: strings.Repeat("a", 7), wantErr: ErrPasswordTooShort},
		{name: "eight characters", password: strings.Repeat("a", 8)},
		{name: "seventy-two bytes", password: strings.Repeat("a", 72)},
		{name: "seventy-three bytes", password: strings.Repeat("a", 73), wantErr: ErrPasswordTooLong},
		// 8 characters, 24 bytes
		{name: "multibyte minimum", password: strings.Repeat("한", 8)},
		{name: "seven multibyte characters", password: strings.Repeat("한", 7), wantErr: ErrPasswordTooShort},
		// 25 characters but 75 bytes
		{name: "multibyte over byte limit", password: strings.Repeat("한", 25), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordPolicy(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsPasswordPolicyError(err))
		})
	}
}

func TestHashPassword_EnforcesPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "too short", password: "short", wantErr: ErrPasswordTooShort},
		{name: "too long", password: strings.Repeat("x", MaxPasswordLength+1), wantErr: ErrPasswordTooLong},
		{name: "accepted", password: "menu-owner-2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, "$2a$12$"), hash)
			assert.True(t, VerifyPassword(hash, tt.password))
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	longest := strings.Repeat("k", MaxPasswordLength)
	hash, err := HashPassword(longest)
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{name: "exact match", hash: hash, password: longest, want: true},
		{name: "one byte short", hash: hash, password: longest[:MaxPasswordLength-1], want: false},
		{name: "extra byte past the limit", hash: hash, password: longest + "k", want: false},
		{name: "empty", hash: hash, password: "", want: false},
		{name: "malformed hash", hash: "not-a-bcrypt-hash", password: longest, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(tt.hash, tt.password))
		})
	}
}

func TestHashPassword_SaltsEachHash(t *testing.T) {
	first, err := HashPassword("bistro-secret")
	require.NoError(t, err)
	second, err := HashPassword("bistro-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, VerifyPassword(first, "bistro-secret"))
	assert.True(t, VerifyPassword(second, "bistro-secret"))
}
