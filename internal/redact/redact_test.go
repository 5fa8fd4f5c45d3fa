package redact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecret(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Placeholder+"wxyz", Secret("sk-abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, Placeholder, Secret("abcd"))
	assert.Equal(t, Placeholder, Secret(""))
}

func TestString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bearer token",
			in:   "request failed: Authorization: Bearer sk-abcdef1234567890",
			want: "request failed: Authorization: Bearer " + Placeholder,
		},
		{
			name: "api key assignment",
			in:   `api_key="sk-abcdef1234567890" rejected`,
			want: `api_key="` + Placeholder + `" rejected`,
		},
		{
			name: "clean text untouched",
			in:   "record 3 of 10 failed",
			want: "record 3 of 10 failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, String(tc.in))
		})
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Error(nil))
	assert.Equal(t,
		"provider said: Bearer "+Placeholder,
		Error(errors.New("provider said: Bearer sk-abcdef1234567890")))
}
