package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "bare object", text: `{"score": 70}`, want: `{"score": 70}`},
		{name: "fenced json", text: "Ecco:\n```json\n{\"score\": 70}\n```\nFine.", want: `{"score": 70}`},
		{name: "fenced without tag", text: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "surrounding prose", text: `Risultato: {"score": 40, "reason": "x"} spero aiuti`, want: `{"score": 40, "reason": "x"}`},
		{name: "nested braces", text: `{"a": {"b": 1}}`, want: `{"a": {"b": 1}}`},
		{name: "no object", text: "non posso rispondere", wantErr: true},
		{name: "reversed braces", text: "} {", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"subject\": \"Ciao\", \"body\": \"Testo\"}\n```", &out))
	assert.Equal(t, "Ciao", out.Subject)
	assert.Equal(t, "Testo", out.Body)

	err := DecodeJSON(`{"subject": }`, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode JSON")
}
