package assign_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bookmap/pkg/assign"
	pkgerrors "github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/oracle"
)

func newService(t *testing.T, o oracle.Oracle, opts ...assign.Option) *assign.Service {
	t.Helper()
	s, err := assign.New(o, opts...)
	require.NoError(t, err)
	return s
}

func answer(content string, usage int) *oracle.Response {
	return &oracle.Response{
		Content:      content,
		FinishReason: "stop",
		Usage:        oracle.Usage{PromptTokens: usage, CompletionTokens: usage, TotalTokens: 2 * usage},
	}
}

func TestNew(t *testing.T) {
	_, err := assign.New(nil)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = assign.New(oracle.Static(""), assign.WithConcurrency(0))
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = assign.New(oracle.Static(""), assign.WithFallbackFolder("  "))
	assert.True(t, pkgerrors.IsValidationError(err))

	s := newService(t, oracle.Static(""), assign.WithFallbackFolder("Inbox"))
	assert.Equal(t, "Inbox", s.FallbackFolder())
}

func TestFilterTags(t *testing.T) {
	vocab := []string{"Go", "Python", "AI"}
	tests := []struct {
		name   string
		answer string
		want   []string
	}{
		{name: "plain", answer: "Go, AI", want: []string{"Go", "AI"}},
		{name: "unknown dropped", answer: "Go, Rust", want: []string{"Go"}},
		{name: "duplicates", answer: "AI,AI , Go", want: []string{"AI", "Go"}},
		{name: "blank parts", answer: " , ,Python,", want: []string{"Python"}},
		{name: "case sensitive", answer: "go, ai", want: []string{}},
		{name: "empty", answer: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assign.FilterTags(tt.answer, vocab))
		})
	}
}

func TestSuggestTags(t *testing.T) {
	var seen oracle.Request
	o := oracle.Func(func(_ context.Context, req oracle.Request) (*oracle.Response, error) {
		seen = req
		return answer("Go, Rust, AI", 10), nil
	})
	s := newService(t, o)

	got, err := s.SuggestTags(context.Background(), assign.TagRequest{
		Title:        "Generics in Go",
		URL:          "https://go.dev/blog",
		ExistingTags: []string{"Go", "AI", " ", "Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "AI"}, got.SuggestedTags)
	assert.Equal(t, "2 tags suggested", got.Reasoning)
	assert.Equal(t, 20, got.Usage.TotalTokens)

	assert.Equal(t, oracle.OpSuggestTags, seen.Operation)
	assert.False(t, seen.JSON)
	assert.Contains(t, seen.Prompt, "Generics in Go")
	assert.Contains(t, seen.Prompt, "Available tags: Go, AI\n")
}

func TestSuggestTagsEmptyVocabulary(t *testing.T) {
	called := false
	o := oracle.Func(func(context.Context, oracle.Request) (*oracle.Response, error) {
		called = true
		return answer("Go", 1), nil
	})
	got, err := newService(t, o).SuggestTags(context.Background(), assign.TagRequest{Title: "x"})
	require.NoError(t, err)
	assert.Empty(t, got.SuggestedTags)
	assert.NotNil(t, got.SuggestedTags)
	assert.NotEmpty(t, got.Reasoning)
	assert.False(t, called)
}

func TestSuggestTagsOracleFailure(t *testing.T) {
	o := oracle.Func(func(context.Context, oracle.Request) (*oracle.Response, error) {
		return nil, pkgerrors.NewAPIError("openai", 503, "unavailable")
	})
	_, err := newService(t, o).SuggestTags(context.Background(), assign.TagRequest{ExistingTags: []string{"Go"}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUpstream(err))
	assert.True(t, pkgerrors.IsProviderUnavailable(err))
}

func TestBulkAssignTags(t *testing.T) {
	o := oracle.Func(func(_ context.Context, req oracle.Request) (*oracle.Response, error) {
		switch {
		case strings.Contains(req.Prompt, "Title: broken"):
			return nil, errors.New("connection reset")
		case strings.Contains(req.Prompt, "Title: python"):
			return answer("Python", 3), nil
		default:
			return answer("Go, Unknown", 5), nil
		}
	})
	s := newService(t, o, assign.WithConcurrency(2))

	resp, err := s.BulkAssignTags(context.Background(), assign.BulkTagRequest{
		Bookmarks: []assign.TagBookmark{
			{ID: "1", Title: "golang"},
			{ID: "2", Title: "broken"},
			{ID: "3", Title: "python", CurrentTags: []string{"AI"}},
		},
		AvailableTags: []string{"Go", "Python", "AI"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 3)
	assert.Equal(t, 3, resp.TotalProcessed)

	assert.Equal(t, "1", resp.Suggestions[0].BookmarkID)
	assert.Equal(t, []string{"Go"}, resp.Suggestions[0].SuggestedTags)

	assert.Equal(t, "2", resp.Suggestions[1].BookmarkID)
	assert.Empty(t, resp.Suggestions[1].SuggestedTags)
	assert.Error(t, resp.Suggestions[1].Err)
	assert.True(t, strings.HasPrefix(resp.Suggestions[1].Reasoning, "error: "))

	assert.Equal(t, []string{"Python"}, resp.Suggestions[2].SuggestedTags)

	assert.Equal(t, 1, resp.Failed())
	assert.Contains(t, resp.Warnings, "1 bookmarks failed")
	assert.Equal(t, 16, resp.Usage.TotalTokens)
}

func TestBulkAssignTagsBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	o := oracle.Func(func(context.Context, oracle.Request) (*oracle.Response, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return answer("Go", 1), nil
	})
	s := newService(t, o, assign.WithConcurrency(3))

	bookmarks := make([]assign.TagBookmark, 20)
	for i := range bookmarks {
		bookmarks[i] = assign.TagBookmark{ID: fmt.Sprint(i), Title: fmt.Sprint("bm", i)}
	}
	resp, err := s.BulkAssignTags(context.Background(), assign.BulkTagRequest{
		Bookmarks:     bookmarks,
		AvailableTags: []string{"Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, 20, resp.TotalProcessed)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	for i, s := range resp.Suggestions {
		assert.Equal(t, fmt.Sprint(i), s.BookmarkID)
	}
}

func TestBulkAssignTagsLimitsBatch(t *testing.T) {
	s := newService(t, oracle.Static("Go"), assign.WithMaxBookmarks(2))
	resp, err := s.BulkAssignTags(context.Background(), assign.BulkTagRequest{
		Bookmarks:     []assign.TagBookmark{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		AvailableTags: []string{"Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalProcessed)
	assert.Contains(t, resp.Warnings, "only the first 2 of 3 bookmarks were processed")
}

func TestBulkAssignTagsNoVocabulary(t *testing.T) {
	resp, err := newService(t, oracle.Static("Go")).BulkAssignTags(context.Background(), assign.BulkTagRequest{
		Bookmarks: []assign.TagBookmark{{ID: "a"}},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Suggestions)
	assert.Zero(t, resp.TotalProcessed)
	assert.NotEmpty(t, resp.OverallReasoning)
}

func TestBulkAssignTagsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := oracle.Func(func(ctx context.Context, _ oracle.Request) (*oracle.Response, error) {
		return nil, ctx.Err()
	})
	_, err := newService(t, o).BulkAssignTags(ctx, assign.BulkTagRequest{
		Bookmarks:     []assign.TagBookmark{{ID: "a"}},
		AvailableTags: []string{"Go"},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func folderRequest() assign.BulkFolderRequest {
	return assign.BulkFolderRequest{
		Bookmarks: []assign.FolderBookmark{
			{ID: "1", Title: "Django tutorial", CurrentFolder: "Inbox"},
			{ID: "2", Title: "Figma tips"},
			{ID: "3", Title: "Random"},
		},
		AvailableFolders: []string{"Programming / Python", "Design", "Programming"},
		Instruction:      "prefer deep folders",
	}
}

func TestBulkAssignFolders(t *testing.T) {
	var seen oracle.Request
	o := oracle.Func(func(_ context.Context, req oracle.Request) (*oracle.Response, error) {
		seen = req
		return answer(`{"assignments":[
			{"bookmark_id":"3","suggested_folder":"Cooking","reasoning":"nothing fits"},
			{"bookmark_id":"1","suggested_folder":"Programming/Python","reasoning":"django"},
			{"bookmark_id":"2","suggested_folder":"Design","reasoning":"figma"}
		]}`, 40), nil
	})
	resp, err := newService(t, o).BulkAssignFolders(context.Background(), folderRequest())
	require.NoError(t, err)

	assert.Equal(t, []assign.BookmarkFolder{
		{BookmarkID: "1", SuggestedFolder: "Programming / Python", Reasoning: "django"},
		{BookmarkID: "2", SuggestedFolder: "Design", Reasoning: "figma"},
		{BookmarkID: "3", SuggestedFolder: "未分類", Reasoning: "nothing fits"},
	}, resp.Suggestions)
	assert.Equal(t, 3, resp.TotalProcessed)
	assert.False(t, resp.Repaired)
	assert.Equal(t, 80, resp.Usage.TotalTokens)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "unlisted folders")

	assert.Equal(t, oracle.OpAssignFolders, seen.Operation)
	assert.True(t, seen.JSON)
	assert.Contains(t, seen.Prompt, "1. ID:1 | Django tutorial | current:Inbox")
	assert.Contains(t, seen.Prompt, "2. ID:2 | Figma tips | current:未分類")
	assert.Contains(t, seen.Prompt, "User instruction: prefer deep folders")
}

func TestBulkAssignFoldersMissingAndDefaulted(t *testing.T) {
	o := oracle.Static("```json\n" + `{"assignments":[{"bookmark_id":"2","reasoning":"?"},{"bookmark_id":"9","suggested_folder":"Design"}]}` + "\n```")
	resp, err := newService(t, o).BulkAssignFolders(context.Background(), folderRequest())
	require.NoError(t, err)

	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "2", resp.Suggestions[0].BookmarkID)
	assert.Equal(t, "未分類", resp.Suggestions[0].SuggestedFolder)
	assert.Contains(t, resp.Warnings, "2 of 3 bookmarks received no assignment")
}

func TestBulkAssignFoldersRepairsTruncation(t *testing.T) {
	o := oracle.Func(func(context.Context, oracle.Request) (*oracle.Response, error) {
		return &oracle.Response{
			Content:      `{"assignments":[{"bookmark_id":"1","suggested_folder":"Design","reasoning":"cut"`,
			FinishReason: oracle.FinishLength,
		}, nil
	})
	resp, err := newService(t, o).BulkAssignFolders(context.Background(), folderRequest())
	require.NoError(t, err)
	assert.True(t, resp.Repaired)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "Design", resp.Suggestions[0].SuggestedFolder)
	assert.Contains(t, resp.Warnings, "oracle response was cut at the token limit; retry with fewer bookmarks")
}

func TestBulkAssignFoldersNoAssignments(t *testing.T) {
	resp, err := newService(t, oracle.Static(`{"assignments":[]}`)).BulkAssignFolders(context.Background(), folderRequest())
	require.NoError(t, err)
	assert.Empty(t, resp.Suggestions)
	assert.Contains(t, resp.Warnings, "oracle returned no assignments")
}

func TestBulkAssignFoldersErrors(t *testing.T) {
	tests := []struct {
		name   string
		oracle oracle.Oracle
		target error
	}{
		{name: "empty", oracle: oracle.Static("   "), target: pkgerrors.ErrEmptyResponse},
		{name: "malformed", oracle: oracle.Static(`{"assignments":[{"bookmark_id":1`), target: pkgerrors.ErrMalformedResponse},
		{name: "call failure", oracle: oracle.Func(func(context.Context, oracle.Request) (*oracle.Response, error) {
			return nil, pkgerrors.NewAPIError("openai", 429, "slow down")
		}), target: pkgerrors.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService(t, tt.oracle).BulkAssignFolders(context.Background(), folderRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, pkgerrors.IsUpstream(err))

			var oe *pkgerrors.OracleError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, assign.StageAssign, oe.Stage)
		})
	}
}

func TestBulkAssignFoldersNoFolders(t *testing.T) {
	req := folderRequest()
	req.AvailableFolders = []string{" "}
	resp, err := newService(t, oracle.Static("")).BulkAssignFolders(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, resp.Suggestions)
	assert.NotEmpty(t, resp.OverallReasoning)
}
