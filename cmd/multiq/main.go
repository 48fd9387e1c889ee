// The multiq chat bot.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/aarondl/multiq/bot"
	"github.com/aarondl/multiq/config"

	// The module set known at build time.
	_ "github.com/aarondl/multiq/modules/eightball"
	_ "github.com/aarondl/multiq/modules/patterns"
	_ "github.com/aarondl/multiq/modules/pipe"
	_ "github.com/aarondl/multiq/modules/randomchat"
)

var configFile = flag.String("config", "config.toml",
	"path to the configuration file")

func main() {
	flag.Parse()

	conf := config.New().FromFile(*configFile)
	if errs := conf.Errors(); len(errs) != 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
	config.SetGlobal(conf)

	b, err := bot.New(conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	b.Logger.SetHandler(log15.StderrHandler)

	if err = b.ConnectAll(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		b.Stop()
	}()

	if err = b.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
