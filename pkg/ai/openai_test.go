package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScoreResponseAcceptsValidPayload(t *testing.T) {
	content := `{"contentAccuracy":4,"participation":5,"presentation":3,"discipline":5,"comment":"ทำได้ดีมาก"}`

	result, err := ParseScoreResponse(content)
	require.NoError(t, err)
	require.Equal(t, ScoreResult{
		ContentAccuracy: 4,
		Participation:   5,
		Presentation:    3,
		Discipline:      5,
		Comment:         "ทำได้ดีมาก",
	}, result)
}

func TestParseScoreResponseRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":          `scores: 4 5 3 5`,
		"missing dimension": `{"contentAccuracy":4,"participation":5,"presentation":3,"comment":"ok"}`,
		"out of range":      `{"contentAccuracy":9,"participation":5,"presentation":3,"discipline":5,"comment":"ok"}`,
		"negative":          `{"contentAccuracy":-1,"participation":5,"presentation":3,"discipline":5,"comment":"ok"}`,
		"non-integer":       `{"contentAccuracy":3.7,"participation":5,"presentation":3,"discipline":5,"comment":"ok"}`,
		"wrong comment":     `{"contentAccuracy":4,"participation":5,"presentation":3,"discipline":5,"comment":42}`,
		"empty comment":     `{"contentAccuracy":4,"participation":5,"presentation":3,"discipline":5,"comment":""}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScoreResponse(content)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}
