package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/gatorauth/internal/filex"
	"github.com/dmitrijs2005/gatorauth/internal/server/auth"
	"github.com/spf13/cobra"
)

var (
	keyDir  string
	keyBits int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the access and refresh token RSA keypairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := writeKeys(keyDir, keyBits)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keyDir, "out", "o", "./keys", "Directory to write the PEM files to")
	keygenCmd.Flags().IntVar(&keyBits, "bits", auth.DefaultKeyBits, "RSA key size")
}

// writeKeys writes a fresh keypair per token class into dir and returns the
// paths written.
func writeKeys(dir string, bits int) ([]string, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	var files []string
	for _, name := range []string{"access", "refresh"} {
		kp, err := auth.GenerateKeyPair(bits)
		if err != nil {
			return nil, fmt.Errorf("generate %s key: %w", name, err)
		}
		priv, pub, err := auth.EncodeKeyPair(kp)
		if err != nil {
			return nil, err
		}

		privPath := filepath.Join(dir, name+".pem")
		pubPath := filepath.Join(dir, name+".pub.pem")
		if err := filex.WriteKeyFile(privPath, priv, true); err != nil {
			return nil, err
		}
		if err := filex.WriteKeyFile(pubPath, pub, false); err != nil {
			return nil, err
		}
		files = append(files, privPath, pubPath)
	}
	return files, nil
}
