// Command moodctl is a terminal front end for the mood journal: it logs in,
// records and edits daily entries, and prints the derived views and the
// service's aggregate statistics.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
