package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/model"
)

// NewDecksCommand creates the decks command group.
func NewDecksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List, create, delete and extend your decks",
	}
	cmd.AddCommand(newDecksListCommand(rootOpts))
	cmd.AddCommand(newDecksCreateCommand(rootOpts))
	cmd.AddCommand(newDecksDeleteCommand(rootOpts))
	cmd.AddCommand(newDecksAddWordsCommand(rootOpts))
	return cmd
}

type deckSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Study    string `json:"study"`
	Language string `json:"language"`
	Words    int    `json:"words"`
}

func newDecksListCommand(rootOpts *RootOptions) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.requireReady(ctx, &creds)
				if err != nil {
					return err
				}

				summaries := make([]deckSummary, 0, len(res.Decks))
				for _, d := range res.Decks {
					summaries = append(summaries, deckSummary{
						ID: d.ID, Name: d.Name, Study: d.Study, Language: d.Language, Words: len(d.Words),
					})
				}
				return a.out.Emit(summaries, func(w io.Writer) {
					if len(summaries) == 0 {
						fmt.Fprintln(w, "no decks yet: vocapp decks create --name ...")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tLANGUAGES\tWORDS")
					for _, s := range summaries {
						fmt.Fprintf(tw, "%s\t%s\t%s→%s\t%d\n", s.ID, s.Name, s.Study, s.Language, s.Words)
					}
					tw.Flush()
				})
			})
		},
	}
	addCredentialFlags(cmd, &creds)
	return cmd
}

func newDecksCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var creds credentials
	var params model.DeckParams
	var words []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a deck and add it to your list",
		Long: `Create a deck and add it to your list.

Words are given as --word word=translation[=example], repeatable. Rows with
an empty word or translation are dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseWords(words)
			if err != nil {
				return err
			}
			params.Words = parsed

			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.requireReady(ctx, &creds)
				if err != nil {
					return err
				}
				id, err := a.ownership.LinkNewDeck(ctx, res.Principal.ID, params)
				if err != nil {
					return err
				}
				return a.out.Emit(map[string]string{"id": id}, func(w io.Writer) {
					fmt.Fprintf(w, "created deck %s\n", id)
				})
			})
		},
	}

	addCredentialFlags(cmd, &creds)
	cmd.Flags().StringVar(&params.Name, "name", "", "deck name")
	cmd.Flags().StringVar(&params.Description, "description", "", "deck description")
	cmd.Flags().StringVar(&params.Study, "study", "", "language being learnt")
	cmd.Flags().StringVar(&params.Language, "language", "", "your language (translations)")
	cmd.Flags().StringArrayVarP(&words, "word", "w", nil, "word=translation[=example] (repeatable)")
	return cmd
}

func newDecksDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "delete <deck-id>",
		Short: "Delete one of your decks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.requireReady(ctx, &creds)
				if err != nil {
					return err
				}
				if err := a.ownership.UnlinkAndDeleteDeck(ctx, res.Principal.ID, args[0]); err != nil {
					return err
				}
				return a.out.Emit(map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted deck %s\n", args[0])
				})
			})
		},
	}
	addCredentialFlags(cmd, &creds)
	return cmd
}

func newDecksAddWordsCommand(rootOpts *RootOptions) *cobra.Command {
	var creds credentials
	var words []string

	cmd := &cobra.Command{
		Use:   "add-words <deck-id>",
		Short: "Append words to one of your decks",
		Long: `Append words to one of your decks.

The deck is read, extended and written back whole. Two add-words runs on the
same deck at the same time can lose one side's words.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseWords(words)
			if err != nil {
				return err
			}
			if len(parsed) == 0 {
				return apperror.ValidationFailed("word", "at least one --word is required")
			}

			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.requireReady(ctx, &creds)
				if err != nil {
					return err
				}
				merged, err := a.ownership.MergeWordsIntoDeck(ctx, res.Principal.ID, args[0], parsed)
				if err != nil {
					return err
				}
				return a.out.Emit(map[string]any{"id": args[0], "words": merged}, func(w io.Writer) {
					fmt.Fprintf(w, "deck %s now has %d words\n", args[0], len(merged))
				})
			})
		},
	}

	addCredentialFlags(cmd, &creds)
	cmd.Flags().StringArrayVarP(&words, "word", "w", nil, "word=translation[=example] (repeatable)")
	return cmd
}

// parseWords turns "word=translation[=example]" flags into rows. A flag
// without "=" is an input error; blank halves are left for CleanWords to
// drop.
func parseWords(flags []string) ([]model.Word, error) {
	out := make([]model.Word, 0, len(flags))
	for _, f := range flags {
		word, rest, ok := strings.Cut(f, "=")
		if !ok {
			return nil, apperror.ValidationFailed("word", fmt.Sprintf("%q: want word=translation", f))
		}
		translation, example, _ := strings.Cut(rest, "=")
		out = append(out, model.Word{Word: word, Translation: translation, Example: example})
	}
	return out, nil
}

