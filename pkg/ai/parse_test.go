package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision_FencedSend(t *testing.T) {
	raw := "Here is my answer:\n```json\n{\"decision\": \"SEND\", \"reason\": \"new pending listing\", \"email\": {\"subject\": \" Congrats \", \"body\": \"Hi Mia\\n\\nDan\"}}\n```"

	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.True(t, d.IsSend())
	assert.Equal(t, "new pending listing", d.Reason)
	require.NotNil(t, d.Email)
	assert.Equal(t, "Congrats", d.Email.Subject)
	assert.Equal(t, "Hi Mia\n\nDan", d.Email.Body)
}

func TestParseDecision_SkipDropsEmail(t *testing.T) {
	d, err := ParseDecision(`{"decision":"skip","reason":"mid-deal conversation","email":{"subject":"x","body":"y"}}`)
	require.NoError(t, err)
	assert.False(t, d.IsSend())
	assert.Nil(t, d.Email)
	assert.Equal(t, "mid-deal conversation", d.Reason)
}

func TestParseDecision_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        "I think you should email them.",
		"unknown verdict": `{"decision":"maybe","reason":"?"}`,
		"missing verdict": `{"reason":"?"}`,
		"send no email":   `{"decision":"send","reason":"go","email":null}`,
		"send empty body": `{"decision":"send","reason":"go","email":{"subject":"Hi","body":"  "}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDecision(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedDecision))
		})
	}
}

func TestExtractJSON_PlainFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON("sure! {\"a\":1} hope that helps"))
}
