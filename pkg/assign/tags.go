package assign

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
)

// TagRequest asks for tags for a single bookmark.
type TagRequest struct {
	Title        string   `json:"title" yaml:"title"`
	URL          string   `json:"url" yaml:"url"`
	Excerpt      string   `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	ExistingTags []string `json:"existing_tags" yaml:"existing_tags"`
}

// TagSuggestion is the answer to a TagRequest.
type TagSuggestion struct {
	SuggestedTags []string     `json:"suggested_tags" yaml:"suggested_tags"`
	Reasoning     string       `json:"reasoning" yaml:"reasoning"`
	Usage         oracle.Usage `json:"usage" yaml:"usage"`
}

// TagBookmark is one bookmark of a bulk tag request.
type TagBookmark struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	URL         string   `json:"url" yaml:"url"`
	Excerpt     string   `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	CurrentTags []string `json:"current_tags,omitempty" yaml:"current_tags,omitempty"`
}

// BulkTagRequest asks for tags for many bookmarks.
type BulkTagRequest struct {
	Bookmarks     []TagBookmark `json:"bookmarks" yaml:"bookmarks"`
	AvailableTags []string      `json:"available_tags" yaml:"available_tags"`
}

// BookmarkTags is the per-bookmark result of a bulk tag request.
type BookmarkTags struct {
	BookmarkID    string   `json:"bookmark_id" yaml:"bookmark_id"`
	SuggestedTags []string `json:"suggested_tags" yaml:"suggested_tags"`
	Reasoning     string   `json:"reasoning" yaml:"reasoning"`
	Err           error    `json:"-" yaml:"-"`
}

// BulkTagResponse collects the results of a bulk tag request in input order.
type BulkTagResponse struct {
	Suggestions      []BookmarkTags `json:"suggestions" yaml:"suggestions"`
	TotalProcessed   int            `json:"total_processed" yaml:"total_processed"`
	OverallReasoning string         `json:"overall_reasoning" yaml:"overall_reasoning"`
	Warnings         []string       `json:"warnings" yaml:"warnings"`
	Usage            oracle.Usage   `json:"usage" yaml:"usage"`
}

// Failed counts suggestions that carry a per-item error.
func (r *BulkTagResponse) Failed() int {
	n := 0
	for _, s := range r.Suggestions {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// SuggestTags picks tags for one bookmark from its existing vocabulary.
// Tags the oracle invents are dropped.
func (s *Service) SuggestTags(ctx context.Context, req TagRequest) (*TagSuggestion, error) {
	vocabulary := cleanList(req.ExistingTags)
	if len(vocabulary) == 0 {
		return &TagSuggestion{
			SuggestedTags: []string{},
			Reasoning:     "no existing tags to choose from",
		}, nil
	}

	tags, usage, err := s.suggest(ctx, oracle.Bookmark{
		Title:   req.Title,
		URL:     req.URL,
		Excerpt: req.Excerpt,
	}, vocabulary)
	if err != nil {
		return nil, err
	}
	return &TagSuggestion{
		SuggestedTags: tags,
		Reasoning:     fmt.Sprintf("%d tags suggested", len(tags)),
		Usage:         usage,
	}, nil
}

// BulkAssignTags suggests tags for every bookmark, one oracle call each,
// with a bounded number of calls in flight. A failed item is reported with
// an empty tag list and does not abort the batch.
func (s *Service) BulkAssignTags(ctx context.Context, req BulkTagRequest) (*BulkTagResponse, error) {
	logger := logging.FromContext(logging.WithOperation(ctx, string(oracle.OpSuggestTags)))

	vocabulary := cleanList(req.AvailableTags)
	if len(vocabulary) == 0 {
		return &BulkTagResponse{
			Suggestions:      []BookmarkTags{},
			OverallReasoning: "no available tags to choose from",
			Warnings:         []string{},
		}, nil
	}

	resp := &BulkTagResponse{Warnings: []string{}}
	bookmarks, trimmed := limit(req.Bookmarks, s.options.maxBookmarks)
	if trimmed {
		resp.Warnings = append(resp.Warnings,
			fmt.Sprintf("only the first %d of %d bookmarks were processed", len(bookmarks), len(req.Bookmarks)))
	}

	results := make([]BookmarkTags, len(bookmarks))
	usages := make([]oracle.Usage, len(bookmarks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.concurrency)
	for i, bm := range bookmarks {
		g.Go(func() error {
			tags, usage, err := s.suggest(gctx, oracle.Bookmark{
				ID:      bm.ID,
				Title:   bm.Title,
				URL:     bm.URL,
				Excerpt: bm.Excerpt,
				Tags:    bm.CurrentTags,
			}, vocabulary)
			usages[i] = usage
			if err != nil {
				logger.Error().Err(err).Str("bookmark_id", bm.ID).Msg("tag suggestion failed")
				results[i] = BookmarkTags{
					BookmarkID:    bm.ID,
					SuggestedTags: []string{},
					Reasoning:     "error: " + err.Error(),
					Err:           err,
				}
				return nil
			}
			results[i] = BookmarkTags{
				BookmarkID:    bm.ID,
				SuggestedTags: tags,
				Reasoning:     fmt.Sprintf("%d tags suggested", len(tags)),
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}

	for _, u := range usages {
		resp.Usage.Add(u)
	}
	resp.Suggestions = results
	resp.TotalProcessed = len(results)
	resp.OverallReasoning = fmt.Sprintf("suggested tags for %d bookmarks", len(results))
	if failed := resp.Failed(); failed > 0 {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%d bookmarks failed", failed))
	}

	logger.Info().
		Int("processed", resp.TotalProcessed).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("bulk tag assignment complete")
	return resp, nil
}

func (s *Service) suggest(ctx context.Context, bm oracle.Bookmark, vocabulary []string) ([]string, oracle.Usage, error) {
	resp, err := s.oracle.Complete(ctx, oracle.Request{
		Operation: oracle.OpSuggestTags,
		System:    oracle.SystemSuggest,
		Prompt:    oracle.SuggestTagsPrompt(bm, vocabulary),
		MaxTokens: constants.SuggestTagsMaxTokens,
	})
	if err != nil {
		return nil, oracle.Usage{}, errors.WrapOracle(StageAssign, string(oracle.OpSuggestTags), err)
	}
	if resp == nil {
		return nil, oracle.Usage{}, errors.WrapOracle(StageAssign, string(oracle.OpSuggestTags), errors.ErrEmptyResponse)
	}
	return FilterTags(resp.Content, vocabulary), resp.Usage, nil
}

// FilterTags splits a comma-separated answer and keeps the tags present in
// vocabulary, in answer order and without duplicates.
func FilterTags(answer string, vocabulary []string) []string {
	known := make(map[string]struct{}, len(vocabulary))
	for _, t := range vocabulary {
		known[t] = struct{}{}
	}

	tags := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(answer, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, ok := known[tag]; !ok {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// cleanList trims entries and drops blanks and duplicates.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
