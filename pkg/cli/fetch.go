package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gmailfilter2csv/pkg/config"
	"gmailfilter2csv/pkg/convert"
	"gmailfilter2csv/pkg/credential"
	"gmailfilter2csv/pkg/gmailapi"
)

func (a *app) fetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [output]",
		Short: "Read filters from a mailbox through the Gmail API",
		Long: "Fetch authorizes with the OAuth client secret in gmail.credentials_file, lists the\n" +
			"mailbox filters and writes them in the same format as convert.",
		Args: cobra.MaximumNArgs(1),
		RunE: a.runFetch,
	}
}

func (a *app) runFetch(cmd *cobra.Command, args []string) error {
	output := a.cfg.Convert.Output
	if len(args) > 0 {
		output = args[0]
	}
	gcfg := a.cfg.Gmail

	store, err := tokenStore(gcfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	prompt := gmailapi.Prompt{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	srv, err := gmailapi.NewService(ctx, gcfg.CredentialsFile, store, prompt, a.log)
	if err != nil {
		return err
	}

	if gcfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gcfg.Timeout)
		defer cancel()
	}
	rows, err := gmailapi.NewClient(srv, gcfg.User, a.log).Rows(ctx)
	if err != nil {
		return err
	}

	res, err := convert.Export(rows, "gmail:"+gcfg.User, output, a.options(cmd))
	if err != nil {
		return err
	}
	return printCompleted(statusWriter(cmd, output), res)
}

func tokenStore(cfg config.GmailConfig) (credential.TokenStore, error) {
	switch cfg.TokenStore {
	case config.TokenStoreFile:
		return credential.FileStore{Path: cfg.TokenFile}, nil
	case config.TokenStoreKeyring:
		ring, err := credential.OpenKeyring(cfg.KeyringDir)
		if err != nil {
			return nil, err
		}
		return credential.NewKeyringStore(ring), nil
	}
	return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}
