package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spacesugam/RA/internal/config"
	"github.com/spacesugam/RA/internal/models"
)

// OracleError wraps any failure of the external content/judging service.
// Callers decide per call site whether to propagate (topic generation) or
// mask with a local fallback (replies, judgments).
type OracleError struct {
	Op  string
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// ReplyRequest carries the context a bot reply is generated from.
type ReplyRequest struct {
	Topic            *models.Topic
	Transcript       []models.Line
	SpeakerName      string
	OpponentName     string
	Side             models.Side
	Round            int
	LastOpponentLine string
}

// JudgeRequest carries both sub-transcripts and side assignments.
type JudgeRequest struct {
	Topic       *models.Topic
	TranscriptA []models.Line
	TranscriptB []models.Line
	NameA       string
	NameB       string
}

// Verdict is the oracle's side-relative judgment; the resolver maps it back
// to concrete participants.
type Verdict struct {
	WinnerSide models.Side                      `json:"winnerSide"`
	SideScores map[models.Side]models.ScoreCard `json:"sideScores"`
	Reasoning  string                           `json:"reasoning"`
}

// Oracle is the external content-generation/judging service.
type Oracle interface {
	GenerateTopic(ctx context.Context) (*models.Topic, error)
	GenerateReply(ctx context.Context, req ReplyRequest) (string, error)
	Judge(ctx context.Context, req JudgeRequest) (*Verdict, error)
}

// chatMessage, chatRequest and chatResponse mirror the OpenAI-compatible
// chat completions API.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIOracle implements Oracle against an OpenAI-compatible endpoint.
type OpenAIOracle struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAIOracle(cfg *config.Config) *OpenAIOracle {
	return &OpenAIOracle{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: cfg.OpenAIBaseURL,
		model:   cfg.OracleModel,
		client:  &http.Client{Timeout: config.OracleTimeout},
	}
}

func (o *OpenAIOracle) complete(ctx context.Context, op, system, user string) (string, error) {
	if o.apiKey == "" {
		return "", &OracleError{Op: op, Err: fmt.Errorf("no API key configured")}
	}

	requestBody, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", &OracleError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", &OracleError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &OracleError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &OracleError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &OracleError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &OracleError{Op: op, Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return "", &OracleError{Op: op, Err: fmt.Errorf("no response choices")}
	}

	return stripCodeFence(chatResp.Choices[0].Message.Content), nil
}

// stripCodeFence unwraps ```json fenced blocks some models insist on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

const topicSystemPrompt = `You generate topics for a comedic 1v1 rap battle app.
Respond with JSON only, no prose, in this exact shape:
{"label":"...","sideA":{"text":"...","difficulty":N},"sideB":{"text":"...","difficulty":N}}
label is a short punchy matchup title. sideA and sideB are the two opposing
stances. difficulty rates how hard the stance is to defend, 1-10.`

func (o *OpenAIOracle) GenerateTopic(ctx context.Context) (*models.Topic, error) {
	content, err := o.complete(ctx, "generate_topic", topicSystemPrompt, "Generate one battle topic.")
	if err != nil {
		return nil, err
	}

	var topic models.Topic
	if err := json.Unmarshal([]byte(content), &topic); err != nil {
		return nil, &OracleError{Op: "generate_topic", Err: fmt.Errorf("malformed topic: %w", err)}
	}
	if topic.SideA.Text == "" || topic.SideB.Text == "" {
		return nil, &OracleError{Op: "generate_topic", Err: fmt.Errorf("incomplete topic")}
	}

	return &topic, nil
}

const replySystemPrompt = `You are a battle rapper in a comedic 1v1 battle app.
Write ONE short verse (2-4 lines, under 300 characters) in character.
Be witty and punchy, never hateful. Respond with the verse text only.`

func (o *OpenAIOracle) GenerateReply(ctx context.Context, req ReplyRequest) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", req.Topic.Label)
	fmt.Fprintf(&sb, "You are %s arguing: %s\n", req.SpeakerName, req.Topic.SideFor(req.Side).Text)
	fmt.Fprintf(&sb, "Your opponent is %s.\nRound %d.\n", req.OpponentName, req.Round)
	if len(req.Transcript) > 0 {
		sb.WriteString("Transcript so far:\n")
		for _, line := range req.Transcript {
			fmt.Fprintf(&sb, "[round %d] %s: %s\n", line.Round, line.Name, line.Text)
		}
	}
	if req.LastOpponentLine != "" {
		fmt.Fprintf(&sb, "Respond directly to the opponent's last line: %s\n", req.LastOpponentLine)
	}

	reply, err := o.complete(ctx, "generate_reply", replySystemPrompt, sb.String())
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", &OracleError{Op: "generate_reply", Err: fmt.Errorf("empty reply")}
	}
	return reply, nil
}

const judgeSystemPrompt = `You judge a finished comedic 1v1 rap battle.
Score each side on wit, humor and originality, 0-10 each, total = their sum.
Respond with JSON only, no prose, in this exact shape:
{"winnerSide":"A","sideScores":{"A":{"wit":N,"humor":N,"originality":N,"total":N},"B":{...}},"reasoning":"..."}`

func (o *OpenAIOracle) Judge(ctx context.Context, req JudgeRequest) (*Verdict, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", req.Topic.Label)
	fmt.Fprintf(&sb, "Side A (%s) argued: %s\n", req.NameA, req.Topic.SideA.Text)
	fmt.Fprintf(&sb, "Side B (%s) argued: %s\n", req.NameB, req.Topic.SideB.Text)
	sb.WriteString("Side A lines:\n")
	for _, line := range req.TranscriptA {
		fmt.Fprintf(&sb, "[round %d] %s\n", line.Round, line.Text)
	}
	sb.WriteString("Side B lines:\n")
	for _, line := range req.TranscriptB {
		fmt.Fprintf(&sb, "[round %d] %s\n", line.Round, line.Text)
	}

	content, err := o.complete(ctx, "judge", judgeSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, &OracleError{Op: "judge", Err: fmt.Errorf("malformed verdict: %w", err)}
	}
	if verdict.WinnerSide != models.SideA && verdict.WinnerSide != models.SideB {
		return nil, &OracleError{Op: "judge", Err: fmt.Errorf("invalid winner side %q", verdict.WinnerSide)}
	}
	if _, ok := verdict.SideScores[verdict.WinnerSide]; !ok {
		return nil, &OracleError{Op: "judge", Err: fmt.Errorf("missing winner scores")}
	}

	return &verdict, nil
}
