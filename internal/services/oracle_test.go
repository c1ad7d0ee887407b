package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesugam/RA/internal/models"
)

// chatStub serves an OpenAI-compatible chat completions endpoint returning
// a fixed message content.
func chatStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func stubOracle(server *httptest.Server) *OpenAIOracle {
	return &OpenAIOracle{
		apiKey:  "test-key",
		baseURL: server.URL,
		model:   "test-model",
		client:  server.Client(),
	}
}

func TestGenerateTopic_ParsesResponse(t *testing.T) {
	server := chatStub(t, `{"label":"Cats vs Dogs","sideA":{"text":"Cats rule","difficulty":6},"sideB":{"text":"Dogs rule","difficulty":4}}`)
	defer server.Close()

	topic, err := stubOracle(server).GenerateTopic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cats vs Dogs", topic.Label)
	assert.Equal(t, 6, topic.SideA.Difficulty)
	assert.Equal(t, "Dogs rule", topic.SideB.Text)
}

func TestGenerateTopic_UnwrapsCodeFence(t *testing.T) {
	server := chatStub(t, "```json\n{\"label\":\"Fenced\",\"sideA\":{\"text\":\"a\",\"difficulty\":5},\"sideB\":{\"text\":\"b\",\"difficulty\":5}}\n```")
	defer server.Close()

	topic, err := stubOracle(server).GenerateTopic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fenced", topic.Label)
}

func TestGenerateTopic_RejectsIncompleteTopic(t *testing.T) {
	server := chatStub(t, `{"label":"Half a topic","sideA":{"text":"only one side","difficulty":5},"sideB":{"text":"","difficulty":5}}`)
	defer server.Close()

	_, err := stubOracle(server).GenerateTopic(context.Background())
	require.Error(t, err)

	var oerr *OracleError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "generate_topic", oerr.Op)
}

func TestGenerateTopic_MalformedJSON(t *testing.T) {
	server := chatStub(t, "here is your topic: cats versus dogs")
	defer server.Close()

	_, err := stubOracle(server).GenerateTopic(context.Background())
	assert.Error(t, err)
}

func TestComplete_NoAPIKey(t *testing.T) {
	o := &OpenAIOracle{client: http.DefaultClient}

	_, err := o.GenerateTopic(context.Background())
	require.Error(t, err)

	var oerr *OracleError
	assert.ErrorAs(t, err, &oerr)
}

func TestComplete_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := stubOracle(server).GenerateTopic(context.Background())
	assert.Error(t, err)
}

func TestGenerateReply_ReturnsVerse(t *testing.T) {
	server := chatStub(t, "Two lines of fire\nburning down your empire")
	defer server.Close()

	reply, err := stubOracle(server).GenerateReply(context.Background(), ReplyRequest{
		Topic: &models.Topic{
			Label: "Cats vs Dogs",
			SideA: models.TopicSide{Text: "Cats rule", Difficulty: 5},
			SideB: models.TopicSide{Text: "Dogs rule", Difficulty: 5},
		},
		SpeakerName:  "Rhyme Reaper",
		OpponentName: "Alice",
		Side:         models.SideB,
		Round:        2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Two lines of fire\nburning down your empire", reply)
}

func TestJudge_ParsesVerdict(t *testing.T) {
	server := chatStub(t, `{"winnerSide":"B","sideScores":{"A":{"wit":6,"humor":6,"originality":6,"total":18},"B":{"wit":8,"humor":8,"originality":8,"total":24}},"reasoning":"B dominated."}`)
	defer server.Close()

	verdict, err := stubOracle(server).Judge(context.Background(), JudgeRequest{
		Topic: &models.Topic{Label: "Cats vs Dogs"},
		NameA: "Alice",
		NameB: "Bob",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SideB, verdict.WinnerSide)
	assert.Equal(t, 24, verdict.SideScores[models.SideB].Total)
	assert.Equal(t, "B dominated.", verdict.Reasoning)
}

func TestJudge_RejectsInvalidWinnerSide(t *testing.T) {
	server := chatStub(t, `{"winnerSide":"C","sideScores":{},"reasoning":"confused"}`)
	defer server.Close()

	_, err := stubOracle(server).Judge(context.Background(), JudgeRequest{
		Topic: &models.Topic{Label: "Cats vs Dogs"},
	})
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, "plain text", stripCodeFence("  plain text  "))
}
