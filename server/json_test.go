package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeJSONString(t *testing.T) {
	cases := map[string]string{
		"plain":        "plain",
		`say "hi"`:     `say \"hi\"`,
		"a\\b":         `a\\b`,
		"line\nbreak":  `line\nbreak`,
		"tab\there":    `tab\there`,
		"\r\b\f":       `\r\b\f`,
		"ctrl\x01byte": "ctrl\\u0001byte",
	}
	for in, want := range cases {
		require.Equal(t, want, string(EscapeJSONString([]byte(in))), "input %q", in)
	}
}

func TestEscapeJSONStringReturnsInputWhenClean(t *testing.T) {
	in := []byte("nothing to do")
	require.Equal(t, &in[0], &EscapeJSONString(in)[0])
}
