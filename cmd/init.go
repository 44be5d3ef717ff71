package cmd

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blakewatson/bookmarks/internal/archive"
	"github.com/blakewatson/bookmarks/internal/auth"
	"github.com/blakewatson/bookmarks/internal/bookmark"
)

func newInitCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data files and an auth token hash.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bookmarks := bookmark.NewStore(filepath.Join(dataDir, "bookmarks.json"))
			if err := bookmarks.Init(); err != nil {
				return fmt.Errorf("init bookmarks file: %w", err)
			}
			records := archive.NewFileRecordStore(filepath.Join(dataDir, "archives.json"))
			if err := records.Init(); err != nil {
				return fmt.Errorf("init archives file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Data files ready in %s\n", dataDir)

			fmt.Fprint(cmd.OutOrStdout(), "Create a password: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			password, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimSpace(password)
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}

			hash, err := auth.HashToken(password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set BOOKMARKS_AUTH_TOKEN_HASH to:\n%s\n", hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory for the JSON data files")
	return cmd
}
