package narrator_test

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greggjuri/chaos-dungeon/internal/narrator"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Shadows "), genai.Text("shift.")}},
		}},
	}
	out, err := narrator.ResponseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Shadows shift.", out)
}

func TestResponseText_Empty(t *testing.T) {
	_, err := narrator.ResponseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, narrator.ErrEmptyReply)

	_, err = narrator.ResponseText(nil)
	assert.ErrorIs(t, err, narrator.ErrEmptyReply)
}
