package assign

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/lenient"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
)

// FolderBookmark is one bookmark of a bulk folder request.
type FolderBookmark struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	URL           string `json:"url" yaml:"url"`
	Excerpt       string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	CurrentFolder string `json:"current_folder,omitempty" yaml:"current_folder,omitempty"`
}

// BulkFolderRequest asks for one folder per bookmark. Available folders
// are full paths joined by " / ".
type BulkFolderRequest struct {
	Bookmarks        []FolderBookmark `json:"bookmarks" yaml:"bookmarks"`
	AvailableFolders []string         `json:"available_folders" yaml:"available_folders"`
	Instruction      string           `json:"instruction,omitempty" yaml:"instruction,omitempty"`
}

// BookmarkFolder is the folder picked for one bookmark.
type BookmarkFolder struct {
	BookmarkID      string `json:"bookmark_id" yaml:"bookmark_id"`
	SuggestedFolder string `json:"suggested_folder" yaml:"suggested_folder"`
	Reasoning       string `json:"reasoning" yaml:"reasoning"`
}

// BulkFolderResponse lists assignments in request order. Bookmarks the
// oracle skipped are absent and reported in Warnings.
type BulkFolderResponse struct {
	Suggestions      []BookmarkFolder `json:"suggestions" yaml:"suggestions"`
	TotalProcessed   int              `json:"total_processed" yaml:"total_processed"`
	OverallReasoning string           `json:"overall_reasoning" yaml:"overall_reasoning"`
	Warnings         []string         `json:"warnings" yaml:"warnings"`
	Repaired         bool             `json:"repaired" yaml:"repaired"`
	Usage            oracle.Usage     `json:"usage" yaml:"usage"`
}

type folderAnswer struct {
	Assignments []struct {
		BookmarkID      string  `json:"bookmark_id"`
		SuggestedFolder *string `json:"suggested_folder"`
		Reasoning       string  `json:"reasoning"`
	} `json:"assignments"`
}

// BulkAssignFolders assigns every bookmark to one of the available folders
// with a single oracle call. Answers naming an unlisted folder fall back to
// the fallback folder. An empty or undecodable answer is an error.
func (s *Service) BulkAssignFolders(ctx context.Context, req BulkFolderRequest) (*BulkFolderResponse, error) {
	ctx = logging.WithOperation(ctx, string(oracle.OpAssignFolders))
	logger := logging.FromContext(ctx)

	folders := cleanList(req.AvailableFolders)
	if len(folders) == 0 {
		return &BulkFolderResponse{
			Suggestions:      []BookmarkFolder{},
			OverallReasoning: "no available folders to choose from",
			Warnings:         []string{},
		}, nil
	}

	out := &BulkFolderResponse{Warnings: []string{}}
	bookmarks, trimmed := limit(req.Bookmarks, s.options.maxBookmarks)
	if trimmed {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("only the first %d of %d bookmarks were processed", len(bookmarks), len(req.Bookmarks)))
	}

	prompted := make([]oracle.Bookmark, len(bookmarks))
	for i, bm := range bookmarks {
		prompted[i] = oracle.Bookmark{
			ID:            bm.ID,
			Title:         bm.Title,
			URL:           bm.URL,
			Excerpt:       bm.Excerpt,
			CurrentFolder: bm.CurrentFolder,
		}
	}
	prompt := oracle.AssignFoldersPrompt(prompted, folders, s.options.fallbackFolder)
	if instruction := strings.TrimSpace(req.Instruction); instruction != "" {
		prompt += "\n\nUser instruction: " + instruction
	}

	resp, err := s.oracle.Complete(ctx, oracle.Request{
		Operation: oracle.OpAssignFolders,
		System:    oracle.SystemAssign,
		Prompt:    prompt,
		JSON:      true,
		MaxTokens: constants.BulkFoldersMaxTokens,
	})
	if err != nil {
		return nil, errors.WrapOracle(StageAssign, string(oracle.OpAssignFolders), err)
	}
	if resp == nil {
		return nil, errors.WrapOracle(StageAssign, string(oracle.OpAssignFolders), errors.ErrEmptyResponse)
	}
	out.Usage = resp.Usage
	if resp.Truncated() {
		logger.Warn().Int("bookmarks", len(bookmarks)).Msg("oracle response hit token limit")
		out.Warnings = append(out.Warnings, "oracle response was cut at the token limit; retry with fewer bookmarks")
	}

	decoded := lenient.Decode[folderAnswer](resp.Content)
	if decoded.Err != nil {
		ev := logger.Error().Err(decoded.Err).Str("finish_reason", resp.FinishReason)
		var malformed *errors.MalformedResponseError
		if errors.As(decoded.Err, &malformed) {
			ev = ev.Int("length", malformed.Length).Str("tail", malformed.Tail)
		}
		ev.Msg("folder assignment response unusable")
		return nil, errors.WrapOracle(StageAssign, string(oracle.OpAssignFolders), decoded.Err)
	}
	out.Repaired = decoded.Repaired

	resolve := newFolderIndex(folders)
	byID := make(map[string]BookmarkFolder, len(decoded.Value.Assignments))
	unknown := 0
	for _, a := range decoded.Value.Assignments {
		if _, dup := byID[a.BookmarkID]; dup {
			continue
		}
		folder := s.options.fallbackFolder
		if a.SuggestedFolder != nil {
			if f, ok := resolve(*a.SuggestedFolder); ok {
				folder = f
			} else if strings.TrimSpace(*a.SuggestedFolder) != s.options.fallbackFolder {
				unknown++
			}
		}
		byID[a.BookmarkID] = BookmarkFolder{
			BookmarkID:      a.BookmarkID,
			SuggestedFolder: folder,
			Reasoning:       a.Reasoning,
		}
	}

	out.Suggestions = make([]BookmarkFolder, 0, len(bookmarks))
	for _, bm := range bookmarks {
		if a, ok := byID[bm.ID]; ok {
			out.Suggestions = append(out.Suggestions, a)
			delete(byID, bm.ID)
		}
	}
	out.TotalProcessed = len(out.Suggestions)
	out.OverallReasoning = fmt.Sprintf("suggested folders for %d bookmarks", out.TotalProcessed)

	switch {
	case out.TotalProcessed == 0:
		out.Warnings = append(out.Warnings, "oracle returned no assignments")
	case out.TotalProcessed < len(bookmarks):
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("%d of %d bookmarks received no assignment", len(bookmarks)-out.TotalProcessed, len(bookmarks)))
	}
	if unknown > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("%d assignments named unlisted folders and were moved to %q", unknown, s.options.fallbackFolder))
	}
	if len(byID) > 0 {
		logger.Warn().Int("count", len(byID)).Msg("oracle assigned unknown bookmark ids")
	}

	logger.Info().
		Int("processed", out.TotalProcessed).
		Bool("repaired", out.Repaired).
		Int("total_tokens", out.Usage.TotalTokens).
		Msg("bulk folder assignment complete")
	return out, nil
}

// newFolderIndex matches oracle answers against the listed folder paths.
// Segments may be separated by "/" with any surrounding spaces.
func newFolderIndex(folders []string) func(string) (string, bool) {
	index := make(map[string]string, len(folders))
	for _, f := range folders {
		index[canonicalPath(f)] = f
	}
	return func(answer string) (string, bool) {
		f, ok := index[canonicalPath(answer)]
		return f, ok
	}
}

func canonicalPath(p string) string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, "/")
}
