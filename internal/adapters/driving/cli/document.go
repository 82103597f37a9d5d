package cli

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `Upload, ingest, list, view, or delete indexed documents.`,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload and index files",
	Long:  `Stores each file in the upload directory, extracts its text and indexes it. Supported formats: .txt, .pdf, .docx.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentUpload,
}

var documentIngestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Index every supported file in a directory",
	Long: `Walks a directory tree and indexes every .txt, .pdf and .docx file.
With --watch the directory keeps being indexed as files change until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentIngest,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentClearCmd = &cobra.Command{
	Use:   "clear-index",
	Short: "Drop every vector from the index",
	Long:  `Removes every vector from the collection. Document records are kept and can be re-indexed by uploading them again.`,
	Args:  cobra.NoArgs,
	RunE:  runDocumentClear,
}

var (
	ingestInclude []string
	ingestExclude []string
	ingestWatch   bool
	ingestNoBar   bool
	documentOut   string
)

func init() {
	documentIngestCmd.Flags().StringSliceVar(&ingestInclude, "include", nil, "only ingest paths matching these glob patterns")
	documentIngestCmd.Flags().StringSliceVar(&ingestExclude, "exclude", nil, "skip paths matching these glob patterns")
	documentIngestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory for changes")
	documentIngestCmd.Flags().BoolVar(&ingestNoBar, "no-progress", false, "disable the progress bar")
	documentListCmd.Flags().StringVarP(&documentOut, "output", "o", outputText, "output format: text, json or yaml")

	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentIngestCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentClearCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errServiceNotConfigured)
	}
	ctx := commandContext(cmd)

	var failed int
	for _, path := range args {
		result, err := documentService.IngestFile(ctx, path)
		if err != nil {
			failed++
			cmd.PrintErrf("  %s: %v\n", path, err)
			continue
		}
		printIngestResult(cmd, result)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, result *domain.IngestResult) {
	cmd.Printf("  %s: %d chunks", result.Document.ID, result.ChunkCount)
	if result.ZeroVectors > 0 {
		cmd.Printf(" (%d without embeddings)", result.ZeroVectors)
	}
	cmd.Println()
}

func runDocumentIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errServiceNotConfigured)
	}
	ctx := commandContext(cmd)

	connector := filesystem.New(args[0],
		filesystem.WithInclude(ingestInclude...),
		filesystem.WithExclude(ingestExclude...),
	)
	defer connector.Close()

	if err := connector.Validate(ctx); err != nil {
		return err
	}

	progress := func(string, error) {}
	if !ingestNoBar {
		files, err := connector.Files(ctx)
		if err != nil {
			return err
		}
		bar := newIngestBar(cmd, len(files))
		progress = func(string, error) {
			_ = bar.Add(1)
		}
	}

	result, err := documentService.IngestDirectory(ctx, connector, progress)
	if err != nil {
		return fmt.Errorf("failed to ingest %s: %w", args[0], err)
	}

	cmd.Printf("Ingested %d of %d documents from %s\n", result.Successful, result.Total, connector.Root())
	if len(result.Failed) > 0 {
		paths := make([]string, 0, len(result.Failed))
		for p := range result.Failed {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		cmd.Println("Failed:")
		for _, p := range paths {
			cmd.Printf("  %s: %v\n", p, result.Failed[p])
		}
	}

	if !ingestWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", connector.Root())
	return documentService.Watch(ctx, connector, func(change domain.RawDocumentChange, err error) {
		if err != nil {
			cmd.PrintErrf("  %s %s: %v\n", change.Type, change.Document.URI, err)
			return
		}
		cmd.Printf("  %s %s\n", change.Type, change.Document.URI)
	})
}

func newIngestBar(cmd *cobra.Command, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			cmd.PrintErrln()
		}),
	)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errServiceNotConfigured)
	}
	if err := validateOutput(documentOut); err != nil {
		return err
	}

	docs, err := documentService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if done, err := printStructured(cmd, documentOut, toDocumentViews(docs)); done {
		return err
	}

	if len(docs) == 0 {
		cmd.Println("No documents uploaded.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Type:   %s\n", docs[i].Type)
		cmd.Printf("    Size:   %d bytes\n", docs[i].Size)
		cmd.Printf("    Chunks: %d\n", docs[i].ChunkCount())
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errServiceNotConfigured)
	}

	doc, err := documentService.Get(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Type:     %s\n", doc.Type)
	cmd.Printf("  Path:     %s\n", doc.Path)
	cmd.Printf("  Size:     %d bytes\n", doc.Size)
	cmd.Printf("  Chunks:   %d\n", doc.ChunkCount())
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errServiceNotConfigured)
	}

	content, err := documentService.GetContent(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errServiceNotConfigured)
	}

	if err := documentService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}

func runDocumentClear(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return fmt.Errorf("document %w", errServiceNotConfigured)
	}

	if err := documentService.ClearIndex(commandContext(cmd)); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	cmd.Println("Index cleared.")
	return nil
}

// documentView is the serialised form of a document listing entry.
type documentView struct {
	ID        string `json:"id" yaml:"id"`
	Type      string `json:"type" yaml:"type"`
	Size      int64  `json:"size" yaml:"size"`
	Chunks    int    `json:"chunks" yaml:"chunks"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

func toDocumentViews(docs []domain.Document) []documentView {
	views := make([]documentView, 0, len(docs))
	for i := range docs {
		views = append(views, documentView{
			ID:        docs[i].ID,
			Type:      docs[i].Type.String(),
			Size:      docs[i].Size,
			Chunks:    docs[i].ChunkCount(),
			UpdatedAt: docs[i].UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return views
}
