package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sakif/vocapp/internal/gate"
	"github.com/sakif/vocapp/internal/model"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var creds credentials
	var name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an email/password account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.auth.Register(ctx, creds.Email, creds.password(), name)
				if err != nil {
					return err
				}
				return a.out.Emit(res.Principal, func(w io.Writer) {
					fmt.Fprintf(w, "registered %s (%s)\n", res.Principal.Email, res.Principal.ID)
					fmt.Fprintln(w, "next: vocapp onboard --native <language>")
				})
			})
		},
	}

	addCredentialFlags(cmd, &creds)
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

// NewOnboardCommand creates the onboard command.
func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	var creds credentials
	var native string

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Create your profile with your native language",
		Long: `Create your profile. Run it once after register.

--native takes a language code such as en, de or pt-BR; region subtags are
ignored. Run "vocapp onboard languages" to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.bootstrap(ctx, &creds)
				if err != nil {
					return err
				}
				if res.State != gate.NeedsOnboarding {
					return NewExitError(ExitFailure, "profile already exists")
				}

				profile, err := a.profiles.Onboard(ctx, *res.Principal, native)
				if err != nil {
					return err
				}
				lang, _ := model.LookupLanguage(profile.NativeLanguage)
				return a.out.Emit(profile, func(w io.Writer) {
					fmt.Fprintf(w, "welcome %s, native language %s (%s)\n", profile.Name, lang.Name, lang.Code)
				})
			})
		},
	}

	addCredentialFlags(cmd, &creds)
	cmd.Flags().StringVar(&native, "native", "", "native language code")
	cmd.MarkFlagRequired("native")

	cmd.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			langs := model.SupportedLanguages()
			return out.Emit(langs, func(w io.Writer) {
				for _, l := range langs {
					fmt.Fprintf(w, "%-4s %s (%s)\n", l.Code, l.Name, l.Native)
				}
			})
		},
	})
	return cmd
}
