package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"1", true},
		{"TRUE", true},
		{" yes ", true},
		{"on", true},
		{"0", false},
		{"", false},
		{"maybe", false},
		{[]byte("true"), true},
		{1, true},
		{int64(0), false},
		{uint8(2), true},
		{nil, false},
		{3.5, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ToBool(c.in), "%#v", c.in)
	}
}
