package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"mvdan.cc/xurls/v2"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Ensure Analyzer implements AnswerAnalyzer
var _ driven.AnswerAnalyzer = (*Analyzer)(nil)

const analyzerSystemPrompt = `You analyse answers produced by AI assistants for brand visibility.
Given a brand, its competitors and an answer, return:
- sentiment: tone toward the brand from -1 (negative) to 1 (positive), 0 if not mentioned
- rank: 1-based position at which the brand is recommended or listed, 0 if not mentioned
- mentions: every listed competitor named in the answer with its 1-based position
- citations: every web source the answer cites, with its domain, url and type
  (owned for the brand's own domains, competitor for competitor sites, earned otherwise)`

// analysisSchema is the strict structured-output contract for the model
var analysisSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"sentiment", "rank", "mentions", "citations"},
	"properties": map[string]any{
		"sentiment": map[string]any{"type": "number"},
		"rank":      map[string]any{"type": "integer"},
		"mentions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"name", "rank"},
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"rank": map[string]any{"type": "integer"},
				},
			},
		},
		"citations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"domain", "url", "type"},
				"properties": map[string]any{
					"domain": map[string]any{"type": "string"},
					"url":    map[string]any{"type": "string"},
					"type":   map[string]any{"type": "string", "enum": []string{"owned", "earned", "competitor"}},
				},
			},
		},
	},
}

// Analyzer reads engine answers with a chat model in structured-output mode
// and cross-checks the result against URLs found in the answer text.
type Analyzer struct {
	model  string
	client openai.Client
	urls   *regexp.Regexp
}

// NewAnalyzer creates an analyzer backed by an OpenAI-compatible endpoint
func NewAnalyzer(apiKey, model, baseURL string, extra ...option.RequestOption) (*Analyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: analyzer API key is required", domain.ErrInvalidInput)
	}
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	if baseURL == "" {
		baseURL = defaults[domain.EngineChatGPT].baseURL
	}

	opts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(defaultTimeout),
	}, extra...)

	return &Analyzer{
		model:  model,
		client: openai.NewClient(opts...),
		urls:   xurls.Strict(),
	}, nil
}

type rawAnalysis struct {
	Sentiment float64 `json:"sentiment"`
	Rank      int     `json:"rank"`
	Mentions  []struct {
		Name string `json:"name"`
		Rank int    `json:"rank"`
	} `json:"mentions"`
	Citations []struct {
		Domain string `json:"domain"`
		URL    string `json:"url"`
		Type   string `json:"type"`
	} `json:"citations"`
}

// Analyze asks the model for a structured reading of the answer
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analyzerSystemPrompt),
			openai.UserMessage(buildAnalysisPrompt(req)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "brand_visibility_analysis",
					Schema: analysisSchema,
					Strict: openai.Bool(true),
				},
			},
		},
		Temperature: openai.Float(0),
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("analyzer completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", domain.ErrMalformedAnalysis)
	}

	var raw rawAnalysis
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedAnalysis, err)
	}
	if raw.Sentiment < -1 || raw.Sentiment > 1 {
		return nil, fmt.Errorf("%w: sentiment %v out of range", domain.ErrMalformedAnalysis, raw.Sentiment)
	}
	if raw.Rank < 0 {
		return nil, fmt.Errorf("%w: negative rank %d", domain.ErrMalformedAnalysis, raw.Rank)
	}

	return a.normalize(req, &raw), nil
}

// normalize keeps only tracked competitors under their canonical names and
// merges model citations with URLs present in the answer text.
func (a *Analyzer) normalize(req domain.AnalysisRequest, raw *rawAnalysis) *domain.Analysis {
	out := &domain.Analysis{Sentiment: raw.Sentiment, Rank: raw.Rank}

	canonical := make(map[string]string, len(req.Competitors))
	for _, c := range req.Competitors {
		canonical[strings.ToLower(strings.TrimSpace(c))] = c
	}
	mentioned := make(map[string]bool)
	for _, m := range raw.Mentions {
		name, ok := canonical[strings.ToLower(strings.TrimSpace(m.Name))]
		if !ok || mentioned[name] || m.Rank < 0 {
			continue
		}
		mentioned[name] = true
		out.Mentions = append(out.Mentions, domain.CompetitorMention{Name: name, Rank: m.Rank})
	}

	seen := make(map[string]bool)
	add := func(host, link string, t domain.DomainType) {
		host = domain.NormalizeDomain(host)
		if host == "" || seen[host] {
			return
		}
		seen[host] = true
		if domain.DomainMatches(host, req.BrandDomains) {
			t = domain.DomainOwned
		}
		out.Citations = append(out.Citations, domain.CitationRef{Domain: host, URL: link, Type: t})
	}
	for _, c := range raw.Citations {
		host := c.Domain
		if host == "" {
			host = hostOf(c.URL)
		}
		add(host, c.URL, domain.ParseDomainType(c.Type))
	}
	for _, link := range a.urls.FindAllString(req.Answer, -1) {
		add(hostOf(link), link, domain.DomainEarned)
	}
	return out
}

func buildAnalysisPrompt(req domain.AnalysisRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand: %s\n", req.Brand)
	if len(req.BrandDomains) > 0 {
		fmt.Fprintf(&b, "Brand domains: %s\n", strings.Join(req.BrandDomains, ", "))
	}
	if len(req.Competitors) > 0 {
		fmt.Fprintf(&b, "Competitors: %s\n", strings.Join(req.Competitors, ", "))
	}
	fmt.Fprintf(&b, "Question: %s\n\nAnswer:\n%s\n", req.Prompt, req.Answer)
	return b.String()
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return domain.NormalizeDomain(link)
	}
	return u.Hostname()
}

// Some compatible endpoints wrap JSON in a markdown fence despite the schema
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
