package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"  Paris Orly \n", "parisorly"},
		{"NEWARK  Liberty", "newarkliberty"},
		{"", ""},
	}
	for _, c := range testCases {
		require.Equal(t, c.expected, NormalizeName(c.in))
	}
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Paris Orly", []string{"orly"}))
	require.True(t, MatchName("Newark Liberty Intl", []string{"berty"}))
	require.False(t, MatchName("Papeete", []string{"orly", "newark"}))
	require.False(t, MatchName("Papeete", nil))
}

func TestExtractObjectBetween(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		prefix   string
		trailer  string
		expected string
		wantErr  bool
	}{
		{
			name:     "simple",
			in:       `pageEngine.init({"a": 1});`,
			prefix:   "pageEngine.init(",
			trailer:  ");",
			expected: `{"a": 1}`,
		},
		{
			name:     "nested braces",
			in:       `junk; pageEngine.init({"a": {"b": 2}}); trailer`,
			prefix:   "pageEngine.init(",
			trailer:  ");",
			expected: `{"a": {"b": 2}}`,
		},
		{
			name:     "whitespace between marker and brace",
			in:       "pageEngine.init(\n\t{\"a\": 1}\n);",
			prefix:   "pageEngine.init(",
			trailer:  ");",
			expected: `{"a": 1}`,
		},
		{
			name:    "missing prefix",
			in:      `{"a": 1});`,
			prefix:  "pageEngine.init(",
			trailer: ");",
			wantErr: true,
		},
		{
			name:    "missing trailer",
			in:      `pageEngine.init({"a": 1}`,
			prefix:  "pageEngine.init(",
			trailer: ");",
			wantErr: true,
		},
		{
			name:    "no opening brace",
			in:      `pageEngine.init("nope");`,
			prefix:  "pageEngine.init(",
			trailer: ");",
			wantErr: true,
		},
		{
			name:    "no closing brace before trailer",
			in:      `pageEngine.init({"a": 1);`,
			prefix:  "pageEngine.init(",
			trailer: ");",
			wantErr: true,
		},
	}

	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			out, err := ExtractObjectBetween(c.in, c.prefix, c.trailer)
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.expected, out)
		})
	}
}
