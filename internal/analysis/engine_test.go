package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"trendscope/internal/domain/trend"
)

func TestCleanJSONResponse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"context":"x"}`, `{"context":"x"}`},
		{"```json\n{\"context\":\"x\"}\n```", `{"context":"x"}`},
		{"```\n{\"context\":\"x\"}\n```", `{"context":"x"}`},
		{"  {\"context\":\"x\"}  \n", `{"context":"x"}`},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, cleanJSONResponse(tc.in))
	}
}

func TestBuildPromptIncludesDetails(t *testing.T) {
	prompt := buildPrompt(trend.Record{
		Name:            "Viral Dance",
		Source:          trend.SourceSocial,
		Category:        "Pop Culture",
		PopularityScore: 1243,
		Details: trend.Details{
			Social: &trend.SocialDetails{Subreddit: "popculturechat", Upvotes: 1243},
		},
	})

	require.True(t, strings.HasPrefix(prompt, "Trend: Viral Dance\n"))
	require.Contains(t, prompt, "Source: social")
	require.Contains(t, prompt, "Category: Pop Culture")
	require.Contains(t, prompt, "Popularity score: 1243")
	require.Contains(t, prompt, "popculturechat")
}

func TestBuildPromptOmitsEmptyCategory(t *testing.T) {
	prompt := buildPrompt(trend.Record{Name: "mystery", Source: trend.SourceSearch})
	require.NotContains(t, prompt, "Category:")
}
