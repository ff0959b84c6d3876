package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/vocapp/internal/study"
)

// NewStudyCommand creates the study command.
func NewStudyCommand(rootOpts *RootOptions) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "study <deck-id>",
		Short: "Study one of your decks as flashcards",
		Long: `Study one of your decks as flashcards.

Read one command per line from stdin:
  f  flip the card
  n  next card (after the last card the session ends)
  p  previous card
  q  quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.requireReady(ctx, &creds)
				if err != nil {
					return err
				}
				deck, err := a.ownership.GetDeck(ctx, res.Principal.ID, args[0])
				if err != nil {
					return err
				}
				s, err := study.Start(deck)
				if err != nil {
					return err
				}
				return runStudy(s, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}

	addCredentialFlags(cmd, &creds)
	return cmd
}

// runStudy drives s from line commands until the session ends or in is
// exhausted.
func runStudy(s *study.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "%s: %d cards (f flip, n next, p previous, q quit)\n", s.DeckName(), s.State().Total)
	fmt.Fprintln(out, study.Render(s))

	sc := bufio.NewScanner(in)
	for s.State().Active && sc.Scan() {
		var err error
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "":
			continue
		case "f", "flip":
			err = s.Flip()
		case "n", "next":
			err = s.Next()
		case "p", "previous":
			err = s.Previous()
		case "q", "quit":
			err = s.Close()
		default:
			fmt.Fprintln(out, "unknown command; use f, n, p or q")
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, study.Render(s))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("cli: reading study commands: %w", err)
	}
	if s.State().Active {
		return s.Close()
	}
	return nil
}
