package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reasonsOf(t *testing.T, err error) []string {
	t.Helper()
	var weak *WeakPasswordError
	require.True(t, errors.As(err, &weak), "expected WeakPasswordError, got %v", err)
	return weak.Reasons
}

func TestDefaultPolicy(t *testing.T) {
	p := Default(8)
	attrs := UserAttributes{Email: "a@b.com", FirstName: "Ada", LastName: "Lovelace"}

	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{name: "strong", password: "Str0ngPass!", want: nil},
		{name: "too short", password: "Ab1!x", want: []string{"This password is too short. It must contain at least 8 characters."}},
		{name: "numeric", password: "8675309112", want: []string{"This password is entirely numeric."}},
		{name: "common", password: "Password123", want: []string{"This password is too common."}},
		{name: "short and numeric", password: "1234", want: []string{
			"This password is too short. It must contain at least 8 characters.",
			"This password is too common.",
			"This password is entirely numeric.",
		}},
		{name: "similar to last name", password: "lovelace1", want: []string{"The password is too similar to the last name."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.password, attrs)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, reasonsOf(t, err))
		})
	}
}

func TestNotSimilarEmail(t *testing.T) {
	rule := NotSimilar(DefaultMaxSimilarity)

	assert.Equal(t, []string{"The password is too similar to the email address."},
		rule("grace.hopper", UserAttributes{Email: "grace.hopper@navy.mil"}))
	assert.Empty(t, rule("Vx9!qLm2#Tz", UserAttributes{Email: "grace.hopper@navy.mil"}))
	assert.Empty(t, rule("anything-goes", UserAttributes{}))
}

func TestNotSimilarSkipsShortParts(t *testing.T) {
	// "a" is far shorter than the password, so it never counts as similar.
	assert.Empty(t, NotSimilar(DefaultMaxSimilarity)("abracadabra!", UserAttributes{FirstName: "a"}))
}

func TestWithAppendsRules(t *testing.T) {
	base := New(MinLength(4))
	extended := base.With(func(password string, _ UserAttributes) []string {
		if password == "forbidden" {
			return []string{"nope"}
		}
		return nil
	})

	assert.NoError(t, base.Validate("forbidden", UserAttributes{}))
	assert.Equal(t, []string{"nope"}, reasonsOf(t, extended.Validate("forbidden", UserAttributes{})))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 0.0001)
	assert.InDelta(t, 0.0, similarity("abc", "xyz"), 0.0001)
	assert.InDelta(t, 6.0/7.0, similarity("abcd", "abc"), 0.0001)
}

func TestCommonPasswordsLoaded(t *testing.T) {
	list := CommonPasswords()
	assert.Contains(t, list, "password")
	assert.Contains(t, list, "qwerty")
	assert.NotContains(t, list, "")
}
