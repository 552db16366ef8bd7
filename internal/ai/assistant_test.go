package ai

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

type fakeDoer struct {
	mu       sync.Mutex
	status   int
	body     string
	err      error
	requests []string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Body != nil {
		payload, _ := io.ReadAll(req.Body)
		f.requests = append(f.requests, string(payload))
	}
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
	}, nil
}

func geminiReply(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func testStations() []models.Station {
	return []models.Station{
		{ID: 1, Name: "Budget Point", PricePerKWh: 3, GreenScore: 4, Chargers: 1},
		{ID: 2, Name: "Green Plaza", PricePerKWh: 8, GreenScore: 9, Chargers: 2},
		{ID: 3, Name: "Fast Lane", PricePerKWh: 6, GreenScore: 6, Chargers: 4},
	}
}

func TestGenerateParsesReply(t *testing.T) {
	doer := &fakeDoer{body: geminiReply("hello driver")}
	client := NewClient("test-key", "", doer)
	if client == nil {
		t.Fatal("expected client with api key")
	}

	reply, err := client.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "hello driver" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestGenerateRejectsNonOK(t *testing.T) {
	doer := &fakeDoer{status: http.StatusTooManyRequests, body: "{}"}
	client := NewClient("test-key", "", doer)

	if _, err := client.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestNewClientWithoutKeyIsNil(t *testing.T) {
	if client := NewClient("  ", "", nil); client != nil {
		t.Fatal("expected nil client without api key")
	}
}

func TestChatFallsBackWithoutClient(t *testing.T) {
	assistant := NewAssistant(nil, zap.NewNop())

	reply, fallback := assistant.Chat(context.Background(), "how long is the queue?")
	if !fallback {
		t.Fatal("expected fallback reply")
	}
	if !strings.Contains(strings.ToLower(reply), "wait line") {
		t.Fatalf("expected queue guidance, got %q", reply)
	}
}

func TestChatFallsBackOnClientError(t *testing.T) {
	doer := &fakeDoer{err: io.ErrUnexpectedEOF}
	assistant := NewAssistant(NewClient("test-key", "", doer), zap.NewNop())

	_, fallback := assistant.Chat(context.Background(), "what does charging cost?")
	if !fallback {
		t.Fatal("expected fallback when the client errors")
	}
}

func TestChatUsesClientReply(t *testing.T) {
	doer := &fakeDoer{body: geminiReply("model answer")}
	assistant := NewAssistant(NewClient("test-key", "", doer), zap.NewNop())

	reply, fallback := assistant.Chat(context.Background(), "anything")
	if fallback {
		t.Fatal("expected model reply, got fallback")
	}
	if reply != "model answer" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestRecommendPicksHighestScore(t *testing.T) {
	assistant := NewAssistant(nil, zap.NewNop())

	// Scores: Budget Point 5, Green Plaza 10, Fast Lane 6.
	rec, err := assistant.Recommend(context.Background(), 80, 20, testStations())
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Station.Name != "Green Plaza" {
		t.Fatalf("expected Green Plaza, got %q", rec.Station.Name)
	}
	if rec.Explanation == "" {
		t.Fatal("expected an explanation")
	}
}

func TestRecommendUnreachable(t *testing.T) {
	assistant := NewAssistant(nil, zap.NewNop())

	if _, err := assistant.Recommend(context.Background(), 10, 50, testStations()); err == nil {
		t.Fatal("expected error when distance exceeds range")
	}
}

func TestRecommendNoStations(t *testing.T) {
	assistant := NewAssistant(nil, zap.NewNop())

	if _, err := assistant.Recommend(context.Background(), 80, 20, nil); err == nil {
		t.Fatal("expected error without stations")
	}
}

func TestFallbackParseQuery(t *testing.T) {
	green := fallbackParseQuery("show me green stations")
	if green.GreenScoreMin == nil || *green.GreenScoreMin != 7 {
		t.Fatalf("expected green score filter, got %+v", green)
	}
	if green.Intent != "greenest" {
		t.Fatalf("expected greenest intent, got %q", green.Intent)
	}

	cheap := fallbackParseQuery("cheap charging please")
	if cheap.SortBy != "price" || cheap.Intent != "cheapest" {
		t.Fatalf("expected price sort, got %+v", cheap)
	}

	fast := fallbackParseQuery("fast chargers nearby")
	if fast.MinChargers == nil || *fast.MinChargers != 2 {
		t.Fatalf("expected charger filter, got %+v", fast)
	}

	plain := fallbackParseQuery("stations near me")
	if plain.Intent != "balanced" {
		t.Fatalf("expected balanced intent, got %q", plain.Intent)
	}
}

func TestSearchStationsFiltersAndSorts(t *testing.T) {
	assistant := NewAssistant(nil, zap.NewNop())

	result := assistant.SearchStations(context.Background(), "green stations", testStations())
	if len(result.Stations) != 1 {
		t.Fatalf("expected one green station, got %d", len(result.Stations))
	}
	if result.Stations[0].Name != "Green Plaza" {
		t.Fatalf("expected Green Plaza, got %q", result.Stations[0].Name)
	}

	cheap := assistant.SearchStations(context.Background(), "cheap", testStations())
	if len(cheap.Stations) != 3 {
		t.Fatalf("expected all stations, got %d", len(cheap.Stations))
	}
	if cheap.Stations[0].Name != "Budget Point" {
		t.Fatalf("expected cheapest first, got %q", cheap.Stations[0].Name)
	}
}

func TestSearchStationsUsesModelFilters(t *testing.T) {
	doer := &fakeDoer{body: geminiReply(`{\"min_chargers\": 4, \"sort_by\": \"chargers\", \"intent\": \"fastest\"}`)}
	assistant := NewAssistant(NewClient("test-key", "", doer), zap.NewNop())

	result := assistant.SearchStations(context.Background(), "need lots of chargers", testStations())
	if len(result.Stations) != 1 || result.Stations[0].Name != "Fast Lane" {
		t.Fatalf("expected Fast Lane only, got %+v", result.Stations)
	}
}

func TestStripCodeFence(t *testing.T) {
	fenced := "```json\n{\"intent\": \"balanced\"}\n```"
	if got := stripCodeFence(fenced); got != `{"intent": "balanced"}` {
		t.Fatalf("unexpected strip result %q", got)
	}
	if got := stripCodeFence("plain"); got != "plain" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
