// Command strokeml trains, compares and serves stroke-risk classifiers.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("strokeml failed")
		os.Exit(1)
	}
}
