// corechaind is the node process: flag parsing and server bootstrap.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/chainkit/corechain/server"
)

func main() {
	if err := server.NewCliApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("node exited with error")
	}
}
