package parentlink

import (
	"example.com/parentator/audio"
	"example.com/parentator/world/entities"
)

// textureSlot is the material name on the wand model that shows the prompt.
const textureSlot = "message-1-start.png.001"

type Texture int

const (
	TextureStart Texture = iota
	TextureNoPermission
	TextureRetry
	TextureAwaitingParent
	TextureSuccess
	textureCount
)

var texturePaths = [textureCount]string{
	TextureStart:          "resources/message-1-start.png",
	TextureNoPermission:   "resources/message-2-noperms.png",
	TextureRetry:          "resources/message-3-tryagain.png",
	TextureAwaitingParent: "resources/message-4-setparent.png",
	TextureSuccess:        "resources/message-5-success.png",
}

func (t Texture) String() string {
	switch t {
	case TextureStart:
		return "start"
	case TextureNoPermission:
		return "no-permission"
	case TextureRetry:
		return "retry"
	case TextureAwaitingParent:
		return "awaiting-parent"
	case TextureSuccess:
		return "success"
	default:
		return "unknown"
	}
}

type Cue int

const (
	CueSelect1 Cue = iota
	CueSelect2
	CueError
	CueSuccess
	cueCount
)

var cuePaths = [cueCount]string{
	CueSelect1: "resources/parent-tool-sound1.wav",
	CueSelect2: "resources/parent-tool-sound2.wav",
	CueError:   "resources/parent-tool-sound-error.wav",
	CueSuccess: "resources/parent-tool-sound-success.wav",
}

func (c Cue) String() string {
	switch c {
	case CueSelect1:
		return "select-1"
	case CueSelect2:
		return "select-2"
	case CueError:
		return "error"
	case CueSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// presenter swaps the wand's prompt texture and plays a cue at the wand.
type presenter struct {
	host   entities.Host
	player SoundPlayer
	volume float64

	self     entities.ID
	textures [textureCount]string
	cueURLs  [cueCount]string
	sounds   [cueCount]*audio.Sound
}

func newPresenter(host entities.Host, player SoundPlayer, assets AssetResolver, volume float64) *presenter {
	p := &presenter{host: host, player: player, volume: volume}
	for t, path := range texturePaths {
		p.textures[t] = assets.Resolve(path)
	}
	for c, path := range cuePaths {
		p.cueURLs[c] = assets.Resolve(path)
	}
	return p
}

func (p *presenter) load(self entities.ID, loader SoundLoader) {
	p.self = self
	for c, url := range p.cueURLs {
		p.sounds[c] = loader.Load(url)
	}
}

func (p *presenter) present(t Texture, c Cue) {
	p.host.EditProperties(p.self, entities.Edit{
		Textures: map[string]string{textureSlot: p.textures[t]},
	})

	// the wand may have moved since it was thrown
	var position entities.Vec3
	if props, ok := p.host.GetProperties(p.self); ok {
		position = props.Position
	}

	p.player.Play(p.sounds[c], audio.PlayOptions{Volume: p.volume, Position: position})
}
