package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/VoiceRelay/internal/auth"
	"github.com/dkeye/VoiceRelay/internal/config"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/spf13/cobra"
)

var errNoRevocationStore = errors.New("revocation.redis_addr is not configured")

type rootOptions struct {
	cfgFile string
	cfg     *config.Config
}

func (o *rootOptions) load() error {
	var err error
	if o.cfgFile != "" {
		o.cfg, err = config.LoadFile(o.cfgFile)
	} else {
		o.cfg, err = config.Load()
	}
	return err
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "issuetoken",
		Short: "Mint and revoke voice relay tokens",
		Long: `issuetoken signs identity tokens with the relay's jwt_key so a relay
can be exercised without the external identity provider.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default config/config.<CONFIG_ENV>.yaml)")

	root.AddCommand(newSignCmd(opts), newRevokeCmd(opts))
	return root
}

func newSignCmd(opts *rootOptions) *cobra.Command {
	var (
		uid, username, profileURL, avatarURL, icon string
		ttl                                        time.Duration
		showJTI                                    bool
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print a signed token for the given identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.NewIdentity(uid, username, profileURL, avatarURL, icon)
			if err != nil {
				return fmt.Errorf("bad identity: %w", err)
			}
			issuer, err := auth.NewIssuer(opts.cfg.JWTKey)
			if err != nil {
				return err
			}
			token, jti, err := issuer.Sign(id, ttl)
			if err != nil {
				return err
			}
			if showJTI {
				cmd.PrintErrln("jti:", jti)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&uid, "uid", "", "stable external user id")
	f.StringVar(&username, "username", "", "display name")
	f.StringVar(&profileURL, "profile-url", "", "profile link")
	f.StringVar(&avatarURL, "avatar-url", "", "avatar image")
	f.StringVar(&icon, "icon", "", "short unicode icon")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	f.BoolVar(&showJTI, "show-jti", false, "print the token id to stderr")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newRevokeCmd(opts *rootOptions) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "revoke <jti>",
		Short: "Add a token id to the revocation list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := opts.cfg.Revocation
			if rc.RedisAddr == "" {
				return errNoRevocationStore
			}
			client, err := auth.ConnectRedis(cmd.Context(), rc.RedisAddr, rc.Password, rc.DB)
			if err != nil {
				return err
			}
			defer client.Close()

			list := auth.NewRedisRevocationList(client, rc.Key)
			if err := list.Revoke(cmd.Context(), args[0], ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "how long to remember the revocation, 0 for ever")
	return cmd
}
