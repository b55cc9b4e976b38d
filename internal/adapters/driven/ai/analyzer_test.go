package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

func newTestAnalyzer(t *testing.T, content string) (*Analyzer, *[]map[string]any) {
	t.Helper()
	srv, requests := chatServer(t, func(map[string]any) *string { return &content })
	a, err := NewAnalyzer("sk-test", "gpt-test", srv.URL, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new analyzer: %v", err)
	}
	return a, requests
}

var acmeRequest = domain.AnalysisRequest{
	Brand:        "Acme",
	BrandDomains: []string{"acme.com"},
	Competitors:  []string{"Globex", "Initech"},
	Prompt:       "best crm for startups?",
	Answer:       "1. Globex\n2. Acme (see https://docs.acme.com/start)\nReviewed on https://www.g2.com/crm and https://g2.com/other.",
}

func TestNewAnalyzer_RequiresKey(t *testing.T) {
	if _, err := NewAnalyzer("", "", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	a, err := NewAnalyzer("sk", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.model != "gpt-4o-mini" {
		t.Errorf("default model = %s", a.model)
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	a, requests := newTestAnalyzer(t, `{
		"sentiment": 0.6,
		"rank": 2,
		"mentions": [
			{"name": "globex", "rank": 1},
			{"name": "Globex", "rank": 4},
			{"name": "Umbrella", "rank": 3}
		],
		"citations": [
			{"domain": "", "url": "https://docs.acme.com/start", "type": "earned"},
			{"domain": "globex.com", "url": "https://globex.com", "type": "competitor"}
		]
	}`)

	got, err := a.Analyze(context.Background(), acmeRequest)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if got.Sentiment != 0.6 || got.Rank != 2 {
		t.Errorf("sentiment/rank = %v/%d", got.Sentiment, got.Rank)
	}
	if len(got.Mentions) != 1 || got.Mentions[0] != (domain.CompetitorMention{Name: "Globex", Rank: 1}) {
		t.Errorf("mentions = %+v", got.Mentions)
	}

	want := []domain.CitationRef{
		{Domain: "docs.acme.com", URL: "https://docs.acme.com/start", Type: domain.DomainOwned},
		{Domain: "globex.com", URL: "https://globex.com", Type: domain.DomainCompetitor},
		{Domain: "g2.com", URL: "https://www.g2.com/crm", Type: domain.DomainEarned},
	}
	if len(got.Citations) != len(want) {
		t.Fatalf("citations = %+v", got.Citations)
	}
	for i := range want {
		if got.Citations[i] != want[i] {
			t.Errorf("citation %d = %+v, want %+v", i, got.Citations[i], want[i])
		}
	}

	req := (*requests)[0]
	format, _ := req["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("expected structured output, got %v", req["response_format"])
	}
	msgs := req["messages"].([]any)
	user := msgs[len(msgs)-1].(map[string]any)["content"].(string)
	for _, part := range []string{"Brand: Acme", "Competitors: Globex, Initech", "best crm for startups?"} {
		if !strings.Contains(user, part) {
			t.Errorf("prompt missing %q", part)
		}
	}
}

func TestAnalyzer_Analyze_CodeFence(t *testing.T) {
	a, _ := newTestAnalyzer(t, "```json\n{\"sentiment\":0,\"rank\":0,\"mentions\":[],\"citations\":[]}\n```")

	got, err := a.Analyze(context.Background(), domain.AnalysisRequest{Brand: "Acme", Answer: "nothing here"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Rank != 0 || len(got.Citations) != 0 || len(got.Mentions) != 0 {
		t.Errorf("unexpected analysis %+v", got)
	}
}

func TestAnalyzer_Analyze_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "Acme ranks second."},
		{"sentiment out of range", `{"sentiment":1.5,"rank":1,"mentions":[],"citations":[]}`},
		{"negative rank", `{"sentiment":0.1,"rank":-2,"mentions":[],"citations":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAnalyzer(t, tt.content)
			_, err := a.Analyze(context.Background(), acmeRequest)
			if !errors.Is(err, domain.ErrMalformedAnalysis) {
				t.Errorf("expected ErrMalformedAnalysis, got %v", err)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:              `{"a":1}`,
		"```json\n{}\n```":     "{}",
		"```\n[]\n```":         "[]",
		"  \n{\"b\":2}\n\t   ": `{"b":2}`,
	}
	for in, want := range tests {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
