package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/bookmap/internal/cmd/emoji"
	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// reportTable lays out the known result types as tables.
func reportTable(data any, wide bool) (Data, bool) {
	switch v := data.(type) {
	case *reconcile.Result:
		return structureTable(v.FinalStructure, wide), true
	case *reconcile.TagResult:
		return structureTable(v.FinalStructure, wide), true
	case *assign.BulkFolderResponse:
		rows := make([][]string, len(v.Suggestions))
		for i, s := range v.Suggestions {
			rows[i] = []string{s.BookmarkID, s.SuggestedFolder, s.Reasoning}
		}
		return Data{Headers: []string{"Bookmark", "Folder", "Reasoning"}, Rows: rows}, true
	case *assign.BulkTagResponse:
		rows := make([][]string, len(v.Suggestions))
		for i, s := range v.Suggestions {
			rows[i] = []string{s.BookmarkID, strings.Join(s.SuggestedTags, ", "), s.Reasoning}
		}
		return Data{Headers: []string{"Bookmark", "Tags", "Reasoning"}, Rows: rows}, true
	case *assign.TagSuggestion:
		return Data{
			Headers: []string{"Tags", "Reasoning"},
			Rows:    [][]string{{strings.Join(v.SuggestedTags, ", "), v.Reasoning}},
		}, true
	}
	return Data{}, false
}

func structureTable(entries []reconcile.Entry, wide bool) Data {
	headers := []string{"Status", "Folder", "Merge From"}
	align := []Align{AlignCenter, AlignLeft, AlignLeft}
	if wide {
		headers = append(headers, "Description")
		align = append(align, AlignLeft)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{statusLabel(e.Status), e.Key().Path(), strings.Join(e.MergeFrom, ", ")}
		if wide {
			row = append(row, e.Description)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

func statusLabel(s reconcile.Status) string {
	switch s {
	case reconcile.StatusNew:
		return emoji.New + " new"
	case reconcile.StatusRemove:
		return emoji.Remove + " remove"
	default:
		return emoji.Existing + " existing"
	}
}

// MarkdownFormatter renders results as a markdown report.
type MarkdownFormatter struct{}

// Format writes data as markdown. Types without a report layout are
// rendered as a fenced JSON block.
func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	doc := md.NewMarkdown(w)

	switch v := data.(type) {
	case *reconcile.Result:
		doc.H1("Folder reconciliation")
		writeSummary(doc, v.OverallReasoning, v.Summary.Created, v.Summary.Removed, v.Summary.Kept, v.Warnings)
		doc.PlainText("Review applied: " + strconv.FormatBool(v.ReviewApplied)).LF()
		if !v.Collisions.Empty() {
			doc.H2("Collisions")
			doc.BulletList(append(append([]string{}, v.Collisions.CrossLevel...), v.Collisions.CrossParent...)...)
		}
		writeStructure(doc, v.FinalStructure)
		if len(v.FoldersToRemove) > 0 {
			doc.H2("Folders to remove")
			doc.BulletList(v.FoldersToRemove...)
		}
	case *reconcile.TagResult:
		doc.H1("Tag reconciliation")
		writeSummary(doc, v.OverallReasoning, v.Summary.Created, v.Summary.Removed, v.Summary.Kept, v.Warnings)
		writeStructure(doc, v.FinalStructure)
		if len(v.TagsToRemove) > 0 {
			doc.H2("Tags to remove")
			doc.BulletList(v.TagsToRemove...)
		}
	default:
		if report, ok := reportTable(data, true); ok {
			doc.Table(md.TableSet{Header: report.Headers, Rows: report.Rows})
			break
		}
		var b strings.Builder
		if err := (&JSONFormatter{Indent: "  "}).Format(&b, data); err != nil {
			return err
		}
		doc.CodeBlocks(md.SyntaxHighlight("json"), strings.TrimSpace(b.String()))
	}

	return doc.Build()
}

func writeSummary(doc *md.Markdown, reasoning string, created, removed, kept int, warnings []string) {
	if reasoning != "" {
		doc.PlainText(reasoning).LF()
	}
	doc.Table(md.TableSet{
		Header: []string{"New", "Remove", "Existing"},
		Rows:   [][]string{{fmt.Sprint(created), fmt.Sprint(removed), fmt.Sprint(kept)}},
	})
	if len(warnings) > 0 {
		doc.H2("Warnings")
		doc.BulletList(warnings...)
	}
}

func writeStructure(doc *md.Markdown, entries []reconcile.Entry) {
	doc.H2("Final structure")
	data := structureTable(entries, true)
	doc.Table(md.TableSet{Header: data.Headers, Rows: data.Rows})
}
