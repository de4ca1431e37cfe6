// Command hubert is the reference CLI for the write-once key-value
// substrate: generating ARIDs and envelopes, and driving put/get/exists
// against any of the three backends or the hybrid router.
package main

import (
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
