package player

import (
	"errors"
	"strings"
	"testing"
	"time"

	"example.com/parentator/assets"
	"example.com/parentator/logging"
	"example.com/parentator/scripts"
	"example.com/parentator/world"
	"example.com/parentator/world/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resetDelay = 40 * time.Millisecond

type room struct {
	world  *world.World
	wand   *entities.Entity
	ball   *entities.Entity
	table  *entities.Entity
	statue *entities.Entity
}

func newRoom(t *testing.T) *room {
	t.Helper()

	r := &room{
		wand:   entities.NewEntity("wand", nil, entities.Properties{Script: scripts.Parentator, Dynamic: true}),
		ball:   entities.NewEntity("red ball", []string{"ball", "red"}, entities.Properties{Dynamic: true}),
		table:  entities.NewEntity("table", nil, entities.Properties{Position: entities.Vec3{X: 3}}),
		statue: entities.NewEntity("statue", nil, entities.Properties{Locked: true}),
	}

	resolver, err := assets.NewResolver("https://cdn.test/scripts")
	require.NoError(t, err)

	r.world = world.NewWorld([]*entities.Entity{r.wand, r.ball, r.table, r.statue}, world.Options{
		Assets: resolver,
		Logger: logging.Discard(),
	})
	t.Cleanup(r.world.Close)

	scripts.Register(r.world, scripts.Options{ResetDelay: resetDelay})
	require.NoError(t, r.world.Init())
	return r
}

// drain collects every line that arrives within wait.
func drain(inbox chan string, wait time.Duration) []string {
	var lines []string
	deadline := time.After(wait)
	for {
		select {
		case line := <-inbox:
			lines = append(lines, line)
		case <-deadline:
			return lines
		}
	}
}

func TestEquipShowsReadiness(t *testing.T) {
	r := newRoom(t)
	inbox := make(chan string, 16)
	p := NewPlayer("Ada", true, r.world, inbox)

	msg, err := p.Equip("wand")
	require.NoError(t, err)
	assert.Equal(t, "You grip the wand.", msg)

	assert.Equal(t, []string{
		"The wand now shows message-1-start.png.",
		"*parent-tool-sound1.wav*",
	}, drain(inbox, 20*time.Millisecond))
	assert.Equal(t, "https://cdn.test/scripts/parent-ator/resources/message-1-start.png", r.wand.Snapshot().Textures["message-1-start.png.001"])

	tool, ok := p.Tool()
	require.True(t, ok)
	assert.Equal(t, r.wand.ID(), tool)
}

func TestEquipWithoutPermission(t *testing.T) {
	r := newRoom(t)
	inbox := make(chan string, 16)
	p := NewPlayer("Bob", false, r.world, inbox)

	_, err := p.Equip("wand")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"The wand now shows message-2-noperms.png.",
		"*parent-tool-sound-error.wav*",
	}, drain(inbox, 20*time.Millisecond))
}

func TestEquipUnscriptedEntity(t *testing.T) {
	r := newRoom(t)
	p := NewPlayer("Ada", true, r.world, make(chan string, 4))

	msg, err := p.Equip("table")
	require.NoError(t, err)
	assert.Equal(t, "The table does nothing in your hands.", msg)
	_, ok := p.Tool()
	assert.False(t, ok)
}

func TestThrowLinksChildToParent(t *testing.T) {
	r := newRoom(t)
	inbox := make(chan string, 32)
	p := NewPlayer("Ada", true, r.world, inbox)

	_, err := p.Equip("wand")
	require.NoError(t, err)
	drain(inbox, 10*time.Millisecond)

	msg, err := p.Throw("statue")
	require.NoError(t, err)
	assert.Equal(t, "The wand bounces off the statue.", msg)
	assert.Equal(t, []string{
		"The wand now shows message-3-tryagain.png.",
		"*parent-tool-sound-error.wav*",
	}, drain(inbox, 10*time.Millisecond))

	_, err = p.Throw("ball")
	require.NoError(t, err)
	assert.False(t, r.ball.Snapshot().Dynamic)

	_, err = p.Throw("table")
	require.NoError(t, err)
	assert.Equal(t, r.table.ID(), r.ball.Snapshot().ParentID)
	assert.Equal(t, entities.Vec3{X: 3}, r.wand.Snapshot().Position, "the wand lands on its target")

	lines := drain(inbox, resetDelay+100*time.Millisecond)
	assert.Equal(t, []string{
		"The wand now shows message-4-setparent.png.",
		"*parent-tool-sound2.wav*",
		"The wand now shows message-5-success.png.",
		"*parent-tool-sound-success.wav*",
		"The wand now shows message-1-start.png.",
		"*parent-tool-sound-success.wav*",
	}, lines)

	look, err := p.Look("table")
	require.NoError(t, err)
	assert.Contains(t, look, "children: red ball")
}

func TestThrowRequiresTool(t *testing.T) {
	r := newRoom(t)
	p := NewPlayer("Ada", true, r.world, make(chan string, 4))

	_, err := p.Throw("ball")
	assert.ErrorIs(t, err, ErrNothingEquipped)
}

func TestThrowAtItself(t *testing.T) {
	r := newRoom(t)
	p := NewPlayer("Ada", true, r.world, make(chan string, 8))
	_, err := p.Equip("wand")
	require.NoError(t, err)

	msg, err := p.Throw("wand")
	require.NoError(t, err)
	assert.Equal(t, "You can't throw the wand at itself.", msg)
}

func TestThrowAfterToolDespawned(t *testing.T) {
	r := newRoom(t)
	inbox := make(chan string, 8)
	p := NewPlayer("Ada", true, r.world, inbox)
	_, err := p.Equip("wand")
	require.NoError(t, err)
	drain(inbox, 10*time.Millisecond)

	require.NoError(t, r.world.Despawn(r.wand.ID()))
	assert.Contains(t, drain(inbox, 10*time.Millisecond), "The wand vanishes.")

	msg, err := p.Throw("ball")
	require.NoError(t, err)
	assert.Equal(t, "Your hands are empty; whatever you held is gone.", msg)

	_, ok := p.Tool()
	assert.False(t, ok)
	assert.True(t, r.ball.Snapshot().Dynamic)
}

func TestAmbiguousTarget(t *testing.T) {
	r := newRoom(t)
	second := entities.NewEntity("blue ball", []string{"ball", "blue"}, entities.Properties{})
	require.NoError(t, r.world.Spawn(second, r.table.ID()))

	p := NewPlayer("Ada", true, r.world, make(chan string, 8))

	_, err := p.Look("ball")
	var amb *AmbiguityError
	require.True(t, errors.As(err, &amb))
	require.Len(t, amb.Matches, 2)
	assert.True(t, strings.HasPrefix(err.Error(), "Which ball do you want to look at?"))

	pending := &PendingAction{Ambiguity: amb}
	_, err = pending.Choose(3)
	assert.Error(t, err)

	for i, m := range amb.Matches {
		out, err := pending.Choose(i + 1)
		require.NoError(t, err)
		assert.Contains(t, out, m.Entity.Name())
	}
}

func TestLookAround(t *testing.T) {
	r := newRoom(t)
	p := NewPlayer("Ada", true, r.world, make(chan string, 8))

	out, err := p.Look("")
	require.NoError(t, err)
	assert.Equal(t, "You see:\n- red ball\n- statue\n- table\n- wand", out)

	out, err = p.Look("unicorn")
	require.NoError(t, err)
	assert.Equal(t, "You wish to look at unicorn, but that's not here.", out)
}

func TestUnequip(t *testing.T) {
	r := newRoom(t)
	inbox := make(chan string, 8)
	p := NewPlayer("Ada", true, r.world, inbox)

	assert.Equal(t, "You aren't holding anything.", p.Unequip())

	_, err := p.Equip("wand")
	require.NoError(t, err)
	drain(inbox, 10*time.Millisecond)

	assert.Equal(t, "You let go.", p.Unequip())
	r.world.EditProperties(r.wand.ID(), entities.Edit{Textures: map[string]string{"x": "y.png"}})
	assert.Empty(t, drain(inbox, 10*time.Millisecond))
}

func TestNameValidation(t *testing.T) {
	assert.Empty(t, NameValidation("Ada"))
	assert.NotEmpty(t, NameValidation(""))
	assert.NotEmpty(t, NameValidation("Ada Lovelace"))
	assert.NotEmpty(t, NameValidation("abcdefghijklmnopqrstuvwxyz"))
}

func TestCooldown(t *testing.T) {
	r := newRoom(t)
	p := NewPlayer("Ada", true, r.world, make(chan string, 1))

	assert.Zero(t, p.CooldownRemaining())
	p.StartCooldown(time.Minute)
	assert.Greater(t, p.CooldownRemaining(), 59*time.Second)
}
