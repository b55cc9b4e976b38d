package services

import (
	"context"
	"testing"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven/mocks"
)

const testOwner = "owner-1"

// fixture wires every in-memory store used by the service tests
type fixture struct {
	users       *mocks.MockUserStore
	prompts     *mocks.MockPromptStore
	answers     *mocks.MockAnswerStore
	metrics     *mocks.MockMetricStore
	competitors *mocks.MockCompetitorStore
	cache       *mocks.MockDashboardCache
	queue       *mocks.MockTaskQueue
	telemetry   *mocks.MockTelemetry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prompts := mocks.NewMockPromptStore()
	f := &fixture{
		users:       mocks.NewMockUserStore(),
		prompts:     prompts,
		answers:     mocks.NewMockAnswerStore(prompts),
		metrics:     mocks.NewMockMetricStore(),
		competitors: mocks.NewMockCompetitorStore(),
		cache:       mocks.NewMockDashboardCache(),
		queue:       mocks.NewMockTaskQueue(),
		telemetry:   mocks.NewMockTelemetry(),
	}
	err := f.users.Save(context.Background(), &domain.User{
		ID:           testOwner,
		Email:        "owner@acme.test",
		Role:         domain.RoleAnalyst,
		BrandName:    "AcmeCRM",
		BrandDomains: []string{"acmecrm.com"},
		Active:       true,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return f
}

func (f *fixture) addPrompt(t *testing.T, text string, processed bool) *domain.Prompt {
	t.Helper()
	p := domain.NewPrompt(testOwner, text, "crm")
	p.Processed = processed
	if err := f.prompts.Save(context.Background(), p); err != nil {
		t.Fatalf("save prompt: %v", err)
	}
	return p
}

func (f *fixture) addAnswer(t *testing.T, promptID string, engine domain.Engine, rank int, sentiment float64, citations ...domain.CitingDomain) *domain.Answer {
	t.Helper()
	a := &domain.Answer{
		ID:        domain.GenerateID(),
		PromptID:  promptID,
		Engine:    engine,
		Snippet:   "answer",
		Rank:      rank,
		Sentiment: sentiment,
		Citations: citations,
		CreatedAt: time.Now(),
	}
	if err := f.answers.Save(context.Background(), a); err != nil {
		t.Fatalf("save answer: %v", err)
	}
	return a
}

func citation(d string, da int, typ domain.DomainType, freshness int) domain.CitingDomain {
	return domain.CitingDomain{
		ID:              domain.GenerateID(),
		Domain:          d,
		URL:             "https://" + d + "/page",
		DomainAuthority: da,
		Type:            typ,
		Freshness:       freshness,
	}
}
