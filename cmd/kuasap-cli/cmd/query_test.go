package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQueryArgs(t *testing.T) {
	cases := []struct {
		args   []string
		expect map[string]string
		err    bool
	}{
		{
			args:   []string{"arg01=106", "arg02=1"},
			expect: map[string]string{"arg01": "106", "arg02": "1"},
		},
		{
			args:   []string{"arg03="},
			expect: map[string]string{"arg03": ""},
		},
		{
			args:   []string{"a=b=c"},
			expect: map[string]string{"a": "b=c"},
		},
		{args: []string{"arg01"}, err: true},
		{args: []string{"=1"}, err: true},
		{args: nil, expect: map[string]string{}},
	}

	for _, test := range cases {
		out, err := parseQueryArgs(test.args)
		if test.err {
			require.Error(t, err, test.args)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, test.expect, out)
	}
}
