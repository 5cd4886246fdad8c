// relayctl is the command line client for the transfer relay.
package main

import "github.com/information-sharing-networks/zypp-relay/internal/cli"

func main() {
	cli.Execute()
}
