package world

import (
	"errors"
	"sync"
	"testing"
	"time"

	"example.com/parentator/audio"
	"example.com/parentator/logging"
	"example.com/parentator/world/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScript struct {
	mu     sync.Mutex
	env    ScriptEnv
	self   entities.ID
	events []string
}

func (s *recordingScript) log(ev string) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingScript) Initialize(self entities.ID) { s.self = self; s.log("init") }
func (s *recordingScript) OnPrimaryAction(entities.ID) { s.log("primary") }
func (s *recordingScript) OnCollision(other entities.ID, _ entities.Collision) {
	s.log("collision")
	if other == s.self {
		panic("hit myself")
	}
}
func (s *recordingScript) Teardown() {
	s.log("teardown")
	s.env.Host.DeleteEntity(s.self)
}

func (s *recordingScript) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type scene struct {
	world  *World
	wand   *entities.Entity
	table  *entities.Entity
	cup    *entities.Entity
	statue *entities.Entity
	script *recordingScript
}

func newScene(t *testing.T) *scene {
	t.Helper()

	s := &scene{
		wand:   entities.NewEntity("wand", nil, entities.Properties{Script: "recorder", Dynamic: true}),
		table:  entities.NewEntity("table", nil, entities.Properties{}),
		cup:    entities.NewEntity("cup", nil, entities.Properties{Dynamic: true}),
		statue: entities.NewEntity("statue", nil, entities.Properties{Locked: true}),
		script: &recordingScript{},
	}
	require.NoError(t, s.cup.SetParent(s.table))

	s.world = NewWorld([]*entities.Entity{s.wand, s.table, s.statue}, Options{Logger: logging.Discard()})
	t.Cleanup(s.world.Close)

	s.world.RegisterScript("recorder", func(env ScriptEnv) entities.Script {
		s.script.env = env
		return s.script
	})
	require.NoError(t, s.world.Init())
	return s
}

func TestNewWorldRegistersChildren(t *testing.T) {
	s := newScene(t)

	cup, ok := s.world.GetEntityById(s.cup.ID())
	require.True(t, ok)
	assert.Same(t, s.cup, cup)
	assert.Equal(t, 4, s.world.Len())

	matches := s.world.FindByAlias("cup")
	require.Len(t, matches, 1)
	assert.Equal(t, "cup (on table)", matches[0].Text)

	var names []string
	for _, e := range s.world.TopLevel() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"statue", "table", "wand"}, names)
}

func TestInitRunsInitialize(t *testing.T) {
	s := newScene(t)
	assert.Equal(t, []string{"init"}, s.script.snapshot())
	assert.Equal(t, s.wand.ID(), s.script.self)
}

func TestInitUnknownScript(t *testing.T) {
	e := entities.NewEntity("gizmo", nil, entities.Properties{Script: "missing"})
	w := NewWorld([]*entities.Entity{e}, Options{Logger: logging.Discard()})
	defer w.Close()

	assert.ErrorIs(t, w.Init(), ErrUnknownScript)
}

func TestDispatch(t *testing.T) {
	s := newScene(t)

	require.NoError(t, s.world.Dispatch(&entities.Event{Type: entities.EventPrimaryAction, Source: s.wand.ID()}))
	require.NoError(t, s.world.Dispatch(&entities.Event{Type: entities.EventCollision, Source: s.wand.ID(), Target: s.table.ID()}))

	assert.Equal(t, []string{"init", "primary", "collision"}, s.script.snapshot())

	err := s.world.Dispatch(&entities.Event{Type: entities.EventPrimaryAction, Source: s.table.ID()})
	assert.ErrorIs(t, err, ErrNoScript)

	err = s.world.Dispatch(&entities.Event{Type: entities.EventCollision, Source: s.wand.ID()})
	assert.ErrorContains(t, err, "has no target")
}

func TestDispatchRecoversScriptPanic(t *testing.T) {
	s := newScene(t)

	err := s.world.Dispatch(&entities.Event{Type: entities.EventCollision, Source: s.wand.ID(), Target: s.wand.ID()})
	assert.ErrorContains(t, err, "hit myself")

	// the loop keeps serving events
	require.NoError(t, s.world.Dispatch(&entities.Event{Type: entities.EventPrimaryAction, Source: s.wand.ID()}))
}

func TestEditPropertiesReparents(t *testing.T) {
	s := newScene(t)

	s.world.EditProperties(s.statue.ID(), entities.Edit{ParentID: entities.Ref(s.table.ID())})

	props, ok := s.world.GetProperties(s.statue.ID())
	require.True(t, ok)
	assert.Equal(t, s.table.ID(), props.ParentID)
	assert.Len(t, s.table.GetChildren(), 2)
	assert.NotContains(t, s.world.TopLevel(), s.statue)

	s.world.EditProperties(s.statue.ID(), entities.Edit{ParentID: entities.Ref(entities.NilID)})

	props, _ = s.world.GetProperties(s.statue.ID())
	assert.False(t, props.HasParent())
	assert.Contains(t, s.world.TopLevel(), s.statue)
	assert.Len(t, s.table.GetChildren(), 1)
}

func TestEditPropertiesRejectsCycles(t *testing.T) {
	s := newScene(t)

	s.world.EditProperties(s.table.ID(), entities.Edit{ParentID: entities.Ref(s.cup.ID())})

	assert.False(t, s.table.Snapshot().HasParent())
	assert.Equal(t, s.table.ID(), s.cup.Snapshot().ParentID)

	s.world.EditProperties(s.table.ID(), entities.Edit{ParentID: entities.Ref(s.table.ID())})
	assert.False(t, s.table.Snapshot().HasParent())
}

func TestEditPropertiesUnknownParent(t *testing.T) {
	s := newScene(t)

	s.world.EditProperties(s.statue.ID(), entities.Edit{ParentID: entities.Ref(entities.NewID()), Dynamic: entities.Bool(true)})

	props, _ := s.world.GetProperties(s.statue.ID())
	assert.False(t, props.HasParent())
	assert.True(t, props.Dynamic, "the rest of the edit still applies")
}

func TestEditPropertiesPublishesTextures(t *testing.T) {
	s := newScene(t)
	inbox := make(chan string, 4)
	watcher := entities.NewID()
	s.world.Watch(s.wand.ID(), watcher, inbox)

	s.world.EditProperties(s.wand.ID(), entities.Edit{Textures: map[string]string{"slot": "file:///a/message-5-success.png"}})

	assert.Equal(t, "The wand now shows message-5-success.png.", <-inbox)
	assert.Equal(t, "file:///a/message-5-success.png", s.wand.Snapshot().Textures["slot"])
}

func TestDeleteEntityReRootsChildren(t *testing.T) {
	s := newScene(t)

	s.world.DeleteEntity(s.table.ID())

	_, ok := s.world.GetEntityById(s.table.ID())
	assert.False(t, ok)
	assert.False(t, s.cup.Snapshot().HasParent())
	assert.Contains(t, s.world.TopLevel(), s.cup)
	assert.NotContains(t, s.world.TopLevel(), s.table)

	// deleting twice is harmless
	s.world.DeleteEntity(s.table.ID())
}

func TestDespawnTearsDownScript(t *testing.T) {
	s := newScene(t)

	require.NoError(t, s.world.Despawn(s.wand.ID()))
	assert.Equal(t, []string{"init", "teardown"}, s.script.snapshot())

	_, ok := s.world.GetEntityById(s.wand.ID())
	assert.False(t, ok)

	assert.ErrorIs(t, s.world.Despawn(s.wand.ID()), ErrEntityNotFound)
}

func TestSpawn(t *testing.T) {
	s := newScene(t)

	lamp := entities.NewEntity("lamp", nil, entities.Properties{})
	require.NoError(t, s.world.Spawn(lamp, s.table.ID()))
	assert.Equal(t, s.table.ID(), lamp.Snapshot().ParentID)
	assert.Len(t, s.world.FindByAlias("lamp"), 1)

	err := s.world.Spawn(entities.NewEntity("ghost", nil, entities.Properties{}), entities.NewID())
	assert.ErrorIs(t, err, ErrEntityNotFound)

	second := &recordingScript{}
	s.world.RegisterScript("second", func(env ScriptEnv) entities.Script {
		second.env = env
		return second
	})
	wand := entities.NewEntity("spare wand", []string{"spare"}, entities.Properties{Script: "second"})
	require.NoError(t, s.world.Spawn(wand, entities.NilID))
	assert.Equal(t, []string{"init"}, second.snapshot())
}

func TestPermissions(t *testing.T) {
	s := newScene(t)
	actor := entities.NewID()

	assert.False(t, s.world.CanCreateObjects(actor))
	s.world.SetPermission(actor, true)
	assert.True(t, s.world.CanCreateObjects(actor))
}

func TestAfterAndCancel(t *testing.T) {
	s := newScene(t)

	fired := make(chan struct{}, 2)
	s.world.After(10*time.Millisecond, func() { fired <- struct{}{} })
	cancel := s.world.After(20*time.Millisecond, func() { fired <- struct{}{} })
	assert.True(t, cancel())
	assert.False(t, cancel())

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAnnouncerPublishesSound(t *testing.T) {
	s := newScene(t)
	inbox := make(chan string, 1)
	s.world.Watch(s.wand.ID(), entities.NewID(), inbox)

	played := s.script.env.Audio.Play(audio.NewSound("file:///r/parent-tool-sound2.wav"), audio.PlayOptions{Volume: 0.3})

	assert.False(t, played, "no audio output is configured")
	assert.Equal(t, "*parent-tool-sound2.wav*", <-inbox)
}

func TestErrorsAreWrapped(t *testing.T) {
	s := newScene(t)
	err := s.world.Despawn(entities.NewID())
	assert.True(t, errors.Is(err, ErrEntityNotFound))
}

func TestDespawnScriptedTearsDownEveryScript(t *testing.T) {
	s := newScene(t)

	require.NoError(t, s.world.DespawnScripted())
	assert.Equal(t, []string{"init", "teardown"}, s.script.snapshot())

	_, ok := s.world.GetEntityById(s.wand.ID())
	assert.False(t, ok)
	_, ok = s.world.GetEntityById(s.table.ID())
	assert.True(t, ok, "unscripted entities stay")

	// nothing left to tear down
	require.NoError(t, s.world.DespawnScripted())
	assert.Len(t, s.script.snapshot(), 2)
}

func TestCheckScripts(t *testing.T) {
	good := entities.NewEntity("wand", nil, entities.Properties{Script: "recorder"})
	bad := entities.NewEntity("gizmo", nil, entities.Properties{Script: "missing"})
	plain := entities.NewEntity("rock", nil, entities.Properties{})

	w := NewWorld([]*entities.Entity{good, bad, plain}, Options{Logger: logging.Discard()})
	defer w.Close()

	w.RegisterScript("recorder", func(ScriptEnv) entities.Script { return &recordingScript{} })
	w.RegisterScript("another", func(ScriptEnv) entities.Script { return &recordingScript{} })
	assert.Equal(t, []string{"another", "recorder"}, w.ScriptNames())

	err := w.CheckScripts()
	require.ErrorIs(t, err, ErrUnknownScript)
	assert.ErrorContains(t, err, "gizmo")
	assert.NotContains(t, err.Error(), "wand")

	w.RegisterScript("missing", func(ScriptEnv) entities.Script { return &recordingScript{} })
	assert.NoError(t, w.CheckScripts())
}

func TestSetListenerWithoutAudio(t *testing.T) {
	s := newScene(t)
	assert.NotPanics(t, func() { s.world.SetListener(entities.Vec3{X: 1}) })
}
