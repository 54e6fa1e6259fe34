package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spendlog/spendlog/internal/backend"
	"github.com/spendlog/spendlog/internal/service"
)

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

type userCreateOptions struct {
	name     string
	email    string
	password string
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &userCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a user",
		Long: `Register a user directly in the store.

The password is read from the terminal without echo when --password is
omitted, or from the first line of stdin when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "login email")
	cmd.Flags().StringVar(&opts.password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

type userCreateResult struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

func runUserCreate(cmd *cobra.Command, rootOpts *RootOptions, opts *userCreateOptions) error {
	password := opts.password
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		var err error
		password, err = readPassword(cmd.InOrStdin())
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password cannot be empty")
	}

	store, err := backend.Open(cmd.Context(), rootOpts.storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	var authOpts []service.AuthOption
	if rootOpts.hashParams != nil {
		authOpts = append(authOpts, service.WithHashParams(*rootOpts.hashParams))
	}
	svc := service.NewAuthService(store, nil, nil, discardLogger(), authOpts...)

	id, err := svc.Register(cmd.Context(), service.RegisterInput{
		Name:     opts.name,
		Email:    opts.email,
		Password: password,
	})
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			return fmt.Errorf("user %s already exists", opts.email)
		}
		return err
	}

	out := newFormatter(rootOpts.Format, cmd.OutOrStdout())
	result := userCreateResult{ID: id, Name: strings.TrimSpace(opts.name), Email: strings.TrimSpace(opts.email)}
	if ok, err := out.Structured(result); ok {
		return err
	}
	out.Printf("user %s created with id %s\n", result.Email, result.ID)
	return nil
}

// readPassword reads without echo from a terminal and falls back to one
// line of input for pipes and tests.
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
