// Command pgcli is a smoke-test client over package pgnative: run a
// query, stream a COPY, or listen on a channel, all from one flag-
// configured connection string.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pgnative"
)

var (
	dsnFlag     string
	verboseFlag bool
	log         = logrus.New()
)

func main() {
	if err := Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Run builds and executes the pgcli command tree; split out from main
// so it can be driven with an explicit argv in tests.
func Run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgcli",
		Short: "smoke-test client for pgnative connections",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verboseFlag {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&dsnFlag, "dsn", "", "connection string (or PGNATIVE_DSN)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("pgnative")
	viper.AutomaticEnv()
	viper.BindPFlag("dsn", root.PersistentFlags().Lookup("dsn"))

	root.AddCommand(newQueryCmd(), newListenCmd(), newCopyToCmd())
	return root
}

func resolveDSN() (string, error) {
	if dsnFlag != "" {
		return dsnFlag, nil
	}
	if v := viper.GetString("dsn"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no connection string given: pass --dsn or set PGNATIVE_DSN")
}

func newQueryCmd() *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "run a query and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := resolveDSN()
			if err != nil {
				return err
			}
			ctx := context.Background()
			c, err := pgnative.Connect(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer c.Close()

			bound := make([]any, len(params))
			for i, p := range params {
				bound[i] = p
			}
			rows, err := c.Fetch(ctx, args[0], bound...)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			for _, row := range rows {
				fmt.Println(row.Values)
			}
			log.Debugf("%d row(s)", len(rows))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "bind parameter (repeatable, always sent as text)")
	return cmd
}

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen <channel>",
		Short: "LISTEN on a channel and print notifications as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := resolveDSN()
			if err != nil {
				return err
			}
			ctx := context.Background()
			c, err := pgnative.Connect(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer c.Close()

			if err := c.AddListener(ctx, args[0], nil); err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			for {
				note, err := c.WaitForNotification(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("[%s] pid=%d payload=%q\n", note.Channel, note.PID, note.Payload)
			}
		},
	}
	return cmd
}

func newCopyToCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy-to <copy-sql>",
		Short: "run a COPY ... TO STDOUT statement and print the raw output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := resolveDSN()
			if err != nil {
				return err
			}
			ctx := context.Background()
			c, err := pgnative.Connect(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer c.Close()

			tag, err := c.CopyTo(ctx, args[0], os.Stdout)
			if err != nil {
				return fmt.Errorf("copy: %w", err)
			}
			log.Debugf("copy complete: %s", tag)
			return nil
		},
	}
	return cmd
}
