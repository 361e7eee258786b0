package history

import (
	"context"
	"testing"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/usecase/search"
)

const action = "/search/query//"

type mockLocation struct {
	url    string
	pushed []string
}

func (m *mockLocation) URL() string { return m.url }
func (m *mockLocation) PushState(u string) {
	m.pushed = append(m.pushed, u)
	m.url = u
}

type mockNavigator struct {
	current  string
	params   query.Params
	freeText string
	applied  int
}

func (m *mockNavigator) Current() string { return m.current }
func (m *mockNavigator) Apply(_ context.Context, p query.Params, ft string) search.Outcome {
	m.params, m.freeText = p, ft
	m.applied++
	return search.OutcomeIssued
}

func TestURLFor(t *testing.T) {
	tests := []struct {
		q    string
		want string
	}{
		{"", "/search/query//"},
		{"budget", "/search/query/budget/"},
		{"sort:date_newest city council", "/search/query/sort:date_newest%20city%20council/"},
		{"a/b?c", "/search/query/a%2Fb%3Fc/"},
	}
	for _, tc := range tests {
		if got := URLFor(action, tc.q); got != tc.want {
			t.Errorf("URLFor(%q) = %q, want %q", tc.q, got, tc.want)
		}
	}
}

func TestQueryFromURL_RoundTrip(t *testing.T) {
	for _, q := range []string{"", "budget", "document-type:file,paper after:2020-01-01 foo bar", "a/b?c"} {
		got, ok := QueryFromURL(action, "https://example.org"+URLFor(action, q))
		if !ok || got != q {
			t.Errorf("QueryFromURL(URLFor(%q)) = %q, %v", q, got, ok)
		}
	}
}

func TestQueryFromURL_Foreign(t *testing.T) {
	if _, ok := QueryFromURL(action, "/file/12/"); ok {
		t.Error("foreign URL accepted")
	}
}

func TestPush(t *testing.T) {
	loc := &mockLocation{}
	s := New(action, loc, &mockNavigator{}, nil)
	s.Push("person:4 budget")
	if len(loc.pushed) != 1 || loc.pushed[0] != "/search/query/person:4%20budget/" {
		t.Errorf("pushed = %v", loc.pushed)
	}
}

func TestPush_SkipsQueryAlreadyShown(t *testing.T) {
	loc := &mockLocation{url: "https://example.org/search/query/budget/"}
	s := New(action, loc, &mockNavigator{}, nil)
	s.Push("budget")
	if len(loc.pushed) != 0 {
		t.Errorf("pushed = %v", loc.pushed)
	}
	s.Push("budget 2020")
	if len(loc.pushed) != 1 {
		t.Errorf("pushed = %v", loc.pushed)
	}
}

func TestOnNavigate_AppliesChangedQuery(t *testing.T) {
	loc := &mockLocation{url: "/search/query/sort:date_oldest%20budget/"}
	nav := &mockNavigator{current: "budget"}
	s := New(action, loc, nav, nil)

	if got := s.OnNavigate(context.Background()); got != search.OutcomeIssued {
		t.Fatalf("outcome = %s", got)
	}
	if nav.applied != 1 || nav.params.Get(query.KeySort) != "date_oldest" || nav.freeText != "budget" {
		t.Errorf("nav = %+v", nav)
	}
}

func TestOnNavigate_SameQueryIsNoop(t *testing.T) {
	loc := &mockLocation{url: "/search/query/budget/"}
	nav := &mockNavigator{current: "budget"}
	s := New(action, loc, nav, nil)

	if got := s.OnNavigate(context.Background()); got != search.OutcomeDuplicate {
		t.Errorf("outcome = %s", got)
	}
	if nav.applied != 0 {
		t.Error("applied an unchanged query")
	}
}

func TestOnNavigate_ForeignURLIgnored(t *testing.T) {
	nav := &mockNavigator{}
	s := New(action, &mockLocation{url: "/about/"}, nav, nil)
	if got := s.OnNavigate(context.Background()); got != search.OutcomeIgnored {
		t.Errorf("outcome = %s", got)
	}
}
