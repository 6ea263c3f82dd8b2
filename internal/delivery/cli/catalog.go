package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Dmitrij-bot/vinabook/internal/client"
	"github.com/Dmitrij-bot/vinabook/internal/resource"
)

type pageOptions struct {
	Page  int
	Limit int
}

func (p *pageOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&p.Limit, "limit", 10, "rows per page")
}

func pageFooter(w io.Writer, page, total, count int) {
	fmt.Fprintf(w, "Page %d of %d (%d total)\n", page, total, count)
}

func renderBooks(w io.Writer, books []resource.Book) {
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tLABEL\tTYPE\tSTOCK")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", b.ID, b.Name, formatVND(b.Price), b.Label, b.Type, b.Quantity)
	}
}

func messageResult(e *env, msg resource.Message, fallback string) error {
	if msg.Message == "" {
		msg.Message = fallback
	}
	return e.out.Success(msg, func(w io.Writer) { fmt.Fprintln(w, msg.Message) })
}

func NewBooksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalogue",
	}

	list := &pageOptions{}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List books page by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				page, err := e.app.API.ListBooks(ctx, list.Page, list.Limit)
				if err != nil {
					return err
				}
				return e.out.Success(page, func(w io.Writer) {
					renderBooks(w, page.Rows)
					pageFooter(w, page.Page, page.TotalPages(), page.Count)
				})
			})
		},
	}
	list.bind(listCmd)

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search books by name, author or label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				books, err := e.app.API.SearchBooks(ctx, args[0])
				if err != nil {
					return err
				}
				return e.out.Success(books, func(w io.Writer) {
					if len(books) == 0 {
						fmt.Fprintf(w, "No books match %q\n", args[0])
						return
					}
					renderBooks(w, books)
				})
			})
		},
	}

	cmd.AddCommand(listCmd, searchCmd, newBookCreateCommand(rootOpts), newBookUpdateCommand(rootOpts), newBookDeleteCommand(rootOpts))
	return cmd
}

type bookOptions struct {
	Name        string
	Price       int64
	Description string
	Label       string
	Type        string
	Image       string
}

func (o *bookOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "book title")
	cmd.Flags().Int64Var(&o.Price, "price", 0, "price in dong")
	cmd.Flags().StringVar(&o.Description, "description", "", "description or author")
	cmd.Flags().StringVar(&o.Label, "label", "", "label value")
	cmd.Flags().StringVar(&o.Image, "image", "", "cover image file")
}

// input opens the cover image; the caller closes the returned file.
func (o *bookOptions) input() (resource.BookInput, io.Closer, error) {
	in := resource.BookInput{
		Name:        o.Name,
		Price:       o.Price,
		Description: o.Description,
		Label:       o.Label,
		Type:        resource.BookType(o.Type),
	}
	if o.Image == "" {
		return in, io.NopCloser(nil), nil
	}

	f, err := os.Open(o.Image)
	if err != nil {
		return in, nil, WrapExitError(ExitCommandError, "failed to open cover image", err)
	}
	in.Image = &client.FormFile{Filename: filepath.Base(o.Image), Content: f}
	return in, f, nil
}

func newBookCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &bookOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a book (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				in, closer, err := opts.input()
				if err != nil {
					return err
				}
				defer closer.Close()

				book, err := e.app.API.CreateBook(ctx, in)
				if err != nil {
					return err
				}
				return e.out.Success(book, func(w io.Writer) {
					fmt.Fprintf(w, "Created %s\t%s\t%s\n", book.ID, book.Name, formatVND(book.Price))
				})
			})
		},
	}
	opts.bind(cmd)

	return cmd
}

func newBookUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &bookOptions{}

	cmd := &cobra.Command{
		Use:   "update <book-id>",
		Short: "Edit a book (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				in, closer, err := opts.input()
				if err != nil {
					return err
				}
				defer closer.Close()

				msg, err := e.app.API.UpdateBook(ctx, args[0], in)
				if err != nil {
					return err
				}
				return messageResult(e, msg, "Book updated")
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Type, "type", string(resource.BookNew), "book type (new|sale)")

	return cmd
}

func newBookDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Remove a book (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				msg, err := e.app.API.DeleteBook(ctx, args[0])
				if err != nil {
					return err
				}
				return messageResult(e, msg, "Book deleted")
			})
		},
	}
}

type labelOptions struct {
	Name        string
	Value       string
	Description string
}

func (o *labelOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "display name")
	cmd.Flags().StringVar(&o.Value, "value", "", "label value used on books")
	cmd.Flags().StringVar(&o.Description, "description", "", "description")
}

func (o *labelOptions) input() resource.LabelInput {
	return resource.LabelInput{Name: o.Name, Value: o.Value, Description: o.Description}
}

func NewLabelsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Manage book labels (admin)",
	}

	list := &pageOptions{}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				page, err := e.app.API.ListLabels(ctx, list.Page, list.Limit)
				if err != nil {
					return err
				}
				return e.out.Success(page, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tNAME\tVALUE\tDESCRIPTION")
					for _, l := range page.Rows {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Value, l.Description)
					}
					pageFooter(w, page.Page, page.TotalPages(), page.Count)
				})
			})
		},
	}
	list.bind(listCmd)

	create := &labelOptions{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add a label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				label, err := e.app.API.CreateLabel(ctx, create.input())
				if err != nil {
					return err
				}
				return e.out.Success(label, func(w io.Writer) {
					fmt.Fprintf(w, "Created %s\t%s\n", label.ID, label.Value)
				})
			})
		},
	}
	create.bind(createCmd)

	update := &labelOptions{}
	updateCmd := &cobra.Command{
		Use:   "update <label-id>",
		Short: "Edit a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				msg, err := e.app.API.UpdateLabel(ctx, args[0], update.input())
				if err != nil {
					return err
				}
				return messageResult(e, msg, "Label updated")
			})
		},
	}
	update.bind(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <label-id>",
		Short: "Remove a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				msg, err := e.app.API.DeleteLabel(ctx, args[0])
				if err != nil {
					return err
				}
				return messageResult(e, msg, "Label deleted")
			})
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}
