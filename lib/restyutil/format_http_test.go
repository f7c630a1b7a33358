package restyutil

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactForm(t *testing.T) {
	cases := []struct {
		body   string
		expect url.Values
	}{
		{
			body:   "uid=1102108130&pwd=hunter2",
			expect: url.Values{"uid": {"1102108130"}, "pwd": {"<redacted>"}},
		},
		{
			body:   "fncid=AG222&arg01=106",
			expect: url.Values{"fncid": {"AG222"}, "arg01": {"106"}},
		},
	}

	for _, test := range cases {
		parsed, err := url.ParseQuery(redactForm(test.body))
		require.NoError(t, err)
		require.Equal(t, test.expect, parsed)
	}
}

func TestFormatHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Add("Set-Cookie", "JSESSIONID=abc")
	headers.Add("Content-Type", "text/html")
	require.Equal(t, "Content-Type: text/html\nSet-Cookie: JSESSIONID=abc", formatHeaders(headers))
	require.Equal(t, "", formatHeaders(http.Header{}))
}
