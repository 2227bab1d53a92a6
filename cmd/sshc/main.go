// Command sshc sends one command over an SSH framed connection and prints the
// first chunk of the response.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/rcarmo/go-minissh/internal/config"
	"github.com/rcarmo/go-minissh/internal/logging"
	"github.com/rcarmo/go-minissh/internal/ssh"
)

var errNoCommand = errors.New("no command given")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout io.Writer) error {
	fset := flag.NewFlagSet("sshc", flag.ContinueOnError)
	fset.Usage = func() {
		fmt.Fprintln(fset.Output(), "USAGE: sshc [options] -- command [args...]")
		fset.PrintDefaults()
	}
	hostFlag := fset.String("host", "", "remote host (default 127.0.0.1)")
	portFlag := fset.String("port", "", "remote port (default 22)")
	userFlag := fset.String("user", "", "remote user (default user)")
	configFlag := fset.String("config", "", "path to a TOML configuration file")
	logLevelFlag := fset.String("log-level", "", "log level (debug, info, warn, error)")

	if err := fset.Parse(argv); err != nil {
		return err
	}

	command := shellquote.Join(fset.Args()...)
	if strings.TrimSpace(command) == "" {
		fset.Usage()
		return errNoCommand
	}

	cfg, err := config.LoadWithOverrides(config.LoadOptions{
		SSHHost:    strings.TrimSpace(*hostFlag),
		SSHPort:    strings.TrimSpace(*portFlag),
		SSHUser:    strings.TrimSpace(*userFlag),
		LogLevel:   strings.TrimSpace(*logLevelFlag),
		ConfigFile: strings.TrimSpace(*configFlag),
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetLevelFromString(cfg.Logging.Level)
	logging.SetFormat(cfg.Logging.Format)

	endpoint := ssh.Endpoint{
		Hostname: cfg.SSH.Host,
		Port:     cfg.SSH.Port,
		User:     cfg.SSH.User,
	}
	conn := ssh.New(endpoint,
		ssh.WithDialer(ssh.TCPDialer(cfg.SSH.ConnectTimeout, cfg.SSH.IOTimeout)),
		ssh.WithReadBufferSize(cfg.SSH.ReadBufferSize),
	)

	logging.Debug("connecting to %s", endpoint)
	if err := conn.Connect(); err != nil {
		return err
	}

	defer func() {
		if err := conn.Disconnect(); err != nil {
			logging.Warn("%v", err)
		}
	}()

	logging.Debug("sending %q", command)
	if err := conn.Send(command); err != nil {
		return err
	}

	out, err := conn.Read()
	if err != nil {
		return err
	}
	if out == "" {
		logging.Info("%s closed the connection without a response", endpoint)
		return nil
	}

	_, err = fmt.Fprint(stdout, out)
	return err
}
