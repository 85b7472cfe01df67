package main

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-i2p/go-peerconn/lib/config"
	"github.com/go-i2p/go-peerconn/lib/transport"
	"github.com/go-i2p/go-peerconn/lib/transport/conn"
	"github.com/go-i2p/go-peerconn/lib/util"
	"github.com/go-i2p/go-peerconn/lib/util/signals"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "go-peerconn",
		Short:         "Encrypted peer-to-peer byte channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.InitConfig()
		},
	}
	root.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file (default is $HOME/.go-peerconn/config.yaml)")

	root.AddCommand(newListenCommand(), newDialCommand(), newConfigCommand())
	return root
}

func newListenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept connections and echo received data back",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides listen.address)")
	bindFlag(cmd, "listen.address", "addr")
	return cmd
}

func newDialCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dial",
		Short: "Connect to a peer, send stdin lines and print what comes back",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := viper.GetString("dial.address")
			if addr == "" {
				return oops.Errorf("--addr is required")
			}
			return runDial(cmd.Context(), addr, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("addr", "", "peer address")
	bindFlag(cmd, "dial.address", "addr")
	return cmd
}

// bindFlag binds a command flag to a viper key. A failure only means the
// flag cannot override the config file, so it is logged.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"at":   "bindFlag",
			"key":  key,
			"flag": flag,
		}).Warn("flag_binding_failed")
	}
}

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.DumpYAML(cmd.OutOrStdout())
		},
	}
}

func runListen(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	lcfg, err := config.NewListenConfigFromViper()
	if err != nil {
		return err
	}
	ccfg, err := config.NewConnConfigFromViper()
	if err != nil {
		return err
	}

	l, err := transport.Listen(lcfg, func(c *conn.Connection, data []byte) {
		c.Send(data)
	}, conn.WithConfig(ccfg))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var closers util.Closers
	closers.Register(l)
	defer closers.CloseAll()

	go signals.Handle()
	defer signals.StopHandle()
	intID := signals.RegisterInterruptHandler(cancel)
	defer signals.DeregisterInterruptHandler(intID)
	reloadID := signals.RegisterReloadHandler(func() {
		if err := config.InitConfig(); err != nil {
			log.WithError(err).Warn("config_reload_failed")
			return
		}
		next, err := config.NewConnConfigFromViper()
		if err != nil {
			log.WithError(err).Warn("config_reload_failed")
			return
		}
		l.SetOptions(conn.WithConfig(next))
		log.WithField("at", "runListen").Debug("config_reloaded")
	})
	defer signals.DeregisterReloadHandler(reloadID)

	log.WithFields(logger.Fields{
		"at":              "runListen",
		"address":         l.Addr().String(),
		"max_connections": lcfg.MaxConnections,
	}).Info("listening")

	err = l.Serve(ctx)
	if errors.Is(err, transport.ErrListenerClosed) {
		return nil
	}
	return err
}

// runDial forwards input lines until the connection closes or parent is
// cancelled. End of input leaves the connection open so replies still arrive.
func runDial(parent context.Context, addr string, in io.Reader, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ccfg, err := config.NewConnConfigFromViper()
	if err != nil {
		return err
	}

	// Output is written from the connection's strand only.
	c, err := transport.Dial(parent, addr, func(_ *conn.Connection, data []byte) {
		if _, err := out.Write(data); err != nil {
			log.WithError(err).Warn("output_write_failed")
		}
	}, conn.WithConfig(ccfg))
	if err != nil {
		return err
	}
	defer c.Close()

	go signals.Handle()
	defer signals.StopHandle()
	intID := signals.RegisterInterruptHandler(func() { c.Close() })
	defer signals.DeregisterInterruptHandler(intID)

	select {
	case <-c.Ready():
	case <-parent.Done():
		return nil
	}
	if c.IsDisconnected() {
		return c.Err()
	}

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			c.Send(append(scanner.Bytes(), '\n'))
		}
		if err := scanner.Err(); err != nil {
			log.WithError(err).Warn("input_read_failed")
		}
	}()

	select {
	case <-c.Done():
	case <-parent.Done():
		log.WithField("at", "runDial").Debug("dial_cancelled")
		c.Close()
		return nil
	}
	if err := c.Err(); err != nil && !errors.Is(err, conn.ErrReceiveFailed) {
		return err
	}
	return nil
}

