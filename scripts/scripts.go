// Package scripts is the bootstrap list: every entity script the server
// knows, by the name scene files use to attach it.
package scripts

import (
	"time"

	"example.com/parentator/parentlink"
	"example.com/parentator/world"
	"example.com/parentator/world/entities"
)

const Parentator = "parentator"

type Options struct {
	ResetDelay time.Duration
	Volume     float64
}

func Register(w *world.World, opts Options) {
	w.RegisterScript(Parentator, func(env world.ScriptEnv) entities.Script {
		// resource paths are relative to the script's own directory
		return parentlink.New(parentlink.Deps{
			Host:   env.Host,
			Sounds: env.Sounds,
			Audio:  env.Audio,
			Assets: env.Assets.Sub("parent-ator"),
		}, parentlink.Options{
			ResetDelay: opts.ResetDelay,
			Volume:     opts.Volume,
			Logger:     env.Logger,
		})
	})
}
