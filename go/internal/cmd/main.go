package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newApp(defaultDeps()).Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("pickem failed")
	}
}
