// Package main is the entry point for the fundscore CLI.
package main

import (
	"github.com/huangsam/fundscore/cmd"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	err := cmd.Execute()

	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	iocache.CloseStores()

	if err != nil {
		contract.LogFatal("fundscore failed", err)
	}
}
