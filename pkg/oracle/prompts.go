package oracle

import (
	"fmt"
	"strings"

	"github.com/agentstation/bookmap/pkg/constants"
)

// Bookmark is the part of a bookmark the oracle sees.
type Bookmark struct {
	ID            string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title         string   `json:"title" yaml:"title"`
	URL           string   `json:"url,omitempty" yaml:"url,omitempty"`
	Excerpt       string   `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
	CurrentFolder string   `json:"current_folder,omitempty" yaml:"current_folder,omitempty"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// System prompts.
const (
	SystemFolders = "You organize bookmarks into a mutually exclusive, collectively exhaustive folder hierarchy. " +
		"Never put a parent name inside a folder name. Only propose merges of two or more folders. Answer in JSON."
	SystemReview = "You review a proposed folder hierarchy and fix names used in more than one place. Answer in JSON."
	SystemTags   = "You design a small vocabulary of short, reusable bookmark tags. Answer in JSON."
	SystemAssign = "You assign bookmarks to existing folders. Use folder names exactly as listed. Answer in JSON."
	SystemSuggest = "You pick tags for a bookmark from a fixed vocabulary. Answer with a comma-separated list only."
)

// FolderPromptInput feeds FolderStructurePrompt.
type FolderPromptInput struct {
	Bookmarks      []Bookmark
	CurrentFolders []string
	Protected      []string
	Instruction    string
	FolderLimit    int
}

// FolderStructurePrompt builds the first-pass folder analysis prompt.
func FolderStructurePrompt(in FolderPromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bookmarks: %d total.\n", len(in.Bookmarks))
	writeBookmarks(&b, in.Bookmarks)

	b.WriteString("\nCurrent folders (parent/name):\n")
	writeList(&b, in.CurrentFolders)

	if len(in.Protected) > 0 {
		fmt.Fprintf(&b, "\nNever merge or remove: %s\n", strings.Join(in.Protected, ", "))
	}
	if in.FolderLimit > 0 {
		fmt.Fprintf(&b, "Propose at most %d folders.\n", in.FolderLimit)
	}
	writeInstruction(&b, in.Instruction)

	b.WriteString(`
Respond with:
{"suggested_folders":[{"name":"","parent":"","description":"","reasoning":"","merge_from":[]}],
 "folders_to_remove":[""],
 "overall_reasoning":""}
Use "" as parent for top-level folders.`)
	return b.String()
}

// ReviewPromptInput feeds ReviewPrompt.
type ReviewPromptInput struct {
	Tree        string
	Paths       []string
	CrossLevel  []string
	CrossParent []string
	Remove      []string
}

// ReviewPrompt builds the review-pass prompt from the rendered first pass.
func ReviewPrompt(in ReviewPromptInput) string {
	var b strings.Builder
	b.WriteString("Proposed hierarchy:\n")
	b.WriteString(in.Tree)
	b.WriteString("\n\nSub-folder paths:\n")
	writeList(&b, in.Paths)

	b.WriteString("\nNames used both at top level and as a sub-folder:\n")
	writeList(&b, in.CrossLevel)
	b.WriteString("\nNames used under more than one parent:\n")
	writeList(&b, in.CrossParent)
	b.WriteString("\nFolders proposed for removal:\n")
	writeList(&b, in.Remove)

	b.WriteString(`
If the hierarchy needs changes, return the complete corrected proposal:
{"needs_adjustment":true,
 "suggested_folders":[{"name":"","parent":"","description":"","reasoning":"","merge_from":[]}],
 "folders_to_remove":[""],
 "overall_reasoning":""}
Otherwise return {"needs_adjustment":false}.`)
	return b.String()
}

// TagPromptInput feeds TagStructurePrompt.
type TagPromptInput struct {
	Bookmarks   []Bookmark
	CurrentTags []string
	Protected   []string
	Instruction string
}

// TagStructurePrompt builds the tag analysis prompt.
func TagStructurePrompt(in TagPromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bookmarks: %d total.\n", len(in.Bookmarks))
	writeBookmarks(&b, in.Bookmarks)
	b.WriteString("\nCurrent tags:\n")
	writeList(&b, in.CurrentTags)
	if len(in.Protected) > 0 {
		fmt.Fprintf(&b, "\nNever merge or remove: %s\n", strings.Join(in.Protected, ", "))
	}
	writeInstruction(&b, in.Instruction)
	b.WriteString(`
Respond with:
{"suggested_tags":[{"name":"","description":"","reasoning":"","merge_from":[]}],
 "tags_to_remove":[""],
 "overall_reasoning":""}`)
	return b.String()
}

// SuggestTagsPrompt asks for tags for one bookmark out of a vocabulary.
func SuggestTagsPrompt(bm Bookmark, vocabulary []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nURL: %s\n", bm.Title, bm.URL)
	if bm.Excerpt != "" {
		fmt.Fprintf(&b, "Excerpt: %s\n", bm.Excerpt)
	}
	fmt.Fprintf(&b, "Available tags: %s\n", strings.Join(vocabulary, ", "))
	if len(bm.Tags) > 0 {
		fmt.Fprintf(&b, "Current tags: %s\n", strings.Join(bm.Tags, ", "))
	}
	b.WriteString("Pick between one and three tags from the available tags. Return nothing if none fit.")
	return b.String()
}

// AssignFoldersPrompt asks for one folder per bookmark.
func AssignFoldersPrompt(bookmarks []Bookmark, folders []string, fallback string) string {
	var b strings.Builder
	b.WriteString("Available folders:\n")
	writeList(&b, folders)
	fmt.Fprintf(&b, "\nBookmarks (%d):\n", len(bookmarks))
	for i, bm := range bookmarks {
		fmt.Fprintf(&b, "%d. ID:%s | %s | current:%s\n", i+1, bm.ID, bm.Title, orDefault(bm.CurrentFolder, fallback))
	}
	fmt.Fprintf(&b, `
Prefer the deepest matching folder. Use %q only when nothing fits.
Respond with:
{"assignments":[{"bookmark_id":"","suggested_folder":"","reasoning":""}],"overall_reasoning":""}`, fallback)
	return b.String()
}

func writeBookmarks(b *strings.Builder, bookmarks []Bookmark) {
	if len(bookmarks) > constants.MaxPromptBookmarks {
		bookmarks = bookmarks[:constants.MaxPromptBookmarks]
	}
	for i, bm := range bookmarks {
		fmt.Fprintf(b, "%d. %s", i+1, bm.Title)
		if bm.URL != "" {
			fmt.Fprintf(b, " (%s)", bm.URL)
		}
		if bm.CurrentFolder != "" {
			fmt.Fprintf(b, " [folder: %s]", bm.CurrentFolder)
		}
		if len(bm.Tags) > 0 {
			fmt.Fprintf(b, " [tags: %s]", strings.Join(bm.Tags, ", "))
		}
		b.WriteByte('\n')
	}
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
}

func writeInstruction(b *strings.Builder, instruction string) {
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		fmt.Fprintf(b, "\nUser instruction: %s\n", instruction)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
