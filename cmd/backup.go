package cmd

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	var dataDir, outDir string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write date-stamped tar.gz backups of the data files.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(outDir, 0o750); err != nil {
				return fmt.Errorf("create backup directory: %w", err)
			}
			suffix := time.Now().Format("2006-01-02")
			for _, name := range []string{"bookmarks", "archives"} {
				src := filepath.Join(dataDir, name+".json")
				dst := filepath.Join(outDir, fmt.Sprintf("%s-%s.tar.gz", name, suffix))
				if err := tarGzFile(src, dst); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dst)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory holding the JSON data files")
	cmd.Flags().StringVar(&outDir, "out", "backups", "directory to write backups into")
	return cmd
}

func tarGzFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("build tar header: %w", err)
	}
	hdr.Name = filepath.Base(src)
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write tar header: %w", err)
	}
	if _, err := io.Copy(tw, in); err != nil {
		return fmt.Errorf("copy %s into archive: %w", src, err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalize gzip: %w", err)
	}
	return nil
}
