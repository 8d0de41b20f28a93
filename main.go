// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"

	"github.com/CapZTr/lime/internal/network"
	"github.com/CapZTr/lime/repl"
)

func main() {
	techName := flag.String("tech", "mig", "network technology: mig, aig or xag")
	flag.Parse()

	tech, err := network.ParseTechnology(*techName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	currentUser, err := user.Current()
	if err != nil {
		fmt.Printf("Error getting current user: %v\n", err)
		return
	}

	fmt.Printf("Welcome to the lime netlist REPL, %s! Type :help for commands.\n", currentUser.Username)
	repl.Start(os.Stdin, os.Stdout, tech)
}
