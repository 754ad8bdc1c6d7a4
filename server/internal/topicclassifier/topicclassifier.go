// Package topicclassifier batches social mentions through an LLM endpoint
// to assign a closed-set subject and a sentiment. It degrades to a fixed
// default classification whenever the endpoint is unconfigured or
// misbehaves — it never surfaces an error to its caller.
package topicclassifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/renatosilveira/politracker/server/internal/models"
)

// BatchSize is the maximum number of mentions sent in a single completion
// request, amortizing per-call cost.
const BatchSize = 5

// MaxSubjectDetailLen truncates subjectDetail to fit the social_mention
// table's subject_detail column.
const MaxSubjectDetailLen = 150

// Classification is one mention's classifier output.
type Classification struct {
	Subject       models.Subject
	SubjectDetail string
	Sentiment     models.Sentiment
}

// defaultClassification is what every mention receives when the endpoint
// is unconfigured or a batch fails outright.
var defaultClassification = Classification{
	Subject:       models.SubjectOther,
	SubjectDetail: "",
	Sentiment:     models.SentimentNeutral,
}

// MentionInput is the minimal shape the classifier needs from a mention.
type MentionInput struct {
	ID      string
	Content string
}

// Classifier wraps an OpenAI-compatible chat-completions endpoint.
type Classifier struct {
	client *openai.Client
	model  string
}

// New constructs a Classifier. An empty apiKey leaves client nil, putting
// ClassifyBatch permanently in degraded mode without ever dialing out.
func New(apiKey, baseURL, model string) *Classifier {
	if apiKey == "" {
		return &Classifier{}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Classifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// ClassifyBatch classifies mentions in chunks of BatchSize, returning one
// Classification per input mention in the same order. Any failure —
// unconfigured client, network error, malformed JSON — degrades the
// affected chunk to defaultClassification; it never returns an error.
func (c *Classifier) ClassifyBatch(ctx context.Context, mentions []MentionInput, politicianName string) []Classification {
	out := make([]Classification, len(mentions))
	for i := range out {
		out[i] = defaultClassification
	}

	if c.client == nil {
		return out
	}

	for start := 0; start < len(mentions); start += BatchSize {
		end := start + BatchSize
		if end > len(mentions) {
			end = len(mentions)
		}
		chunk := mentions[start:end]
		results, err := c.classifyChunk(ctx, chunk, politicianName)
		if err != nil {
			log.Printf("topicclassifier: chunk %d-%d degraded to defaults: %v", start, end, err)
			continue
		}
		for i, r := range results {
			out[start+i] = normalize(r)
		}
	}
	return out
}

type chunkResult struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	SubjectDetail string `json:"subject_detail"`
	Sentiment     string `json:"sentiment"`
}

func (c *Classifier) classifyChunk(ctx context.Context, mentions []MentionInput, politicianName string) ([]chunkResult, error) {
	prompt := buildPrompt(mentions, politicianName)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	var parsed struct {
		Results []chunkResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parsing completion json: %w", err)
	}
	if len(parsed.Results) != len(mentions) {
		return nil, fmt.Errorf("expected %d results, got %d", len(mentions), len(parsed.Results))
	}
	return parsed.Results, nil
}

const classifierSystemPrompt = `You classify social-media mentions of Brazilian politicians.
For each mention, assign exactly one subject from this closed list:
Health, Education, Security, Economy, Infrastructure, Environment, Corruption,
Politics, Social, Culture, Technology, Agribusiness, Other.
Also assign a sentiment of positive, neutral, or negative, and an optional
short subject_detail phrase.
Respond with strict JSON: {"results": [{"id": "...", "subject": "...", "subject_detail": "...", "sentiment": "..."}]}
in the same order and count as the input mentions.`

func buildPrompt(mentions []MentionInput, politicianName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Politician: %s\nMentions:\n", politicianName)
	for _, m := range mentions {
		fmt.Fprintf(&b, "- id=%s: %s\n", m.ID, m.Content)
	}
	return b.String()
}

// normalize maps an unrecognized subject to Other and truncates
// subjectDetail, matching the degrade/normalize contract exactly.
func normalize(r chunkResult) Classification {
	subject := models.Subject(r.Subject)
	if !models.ValidSubjects[subject] {
		subject = models.SubjectOther
	}

	sentiment := models.Sentiment(strings.ToLower(r.Sentiment))
	switch sentiment {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
	default:
		sentiment = models.SentimentNeutral
	}

	detail := r.SubjectDetail
	if len(detail) > MaxSubjectDetailLen {
		detail = detail[:MaxSubjectDetailLen]
	}

	return Classification{Subject: subject, SubjectDetail: detail, Sentiment: sentiment}
}
