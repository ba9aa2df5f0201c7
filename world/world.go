package world

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"example.com/parentator/assets"
	"example.com/parentator/audio"
	"example.com/parentator/world/entities"
	"example.com/parentator/world/scheduler"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrNoScript       = errors.New("entity has no script")
	ErrUnknownScript  = errors.New("unknown script")
)

type SoundPlayer interface {
	Play(s *audio.Sound, opts audio.PlayOptions) bool
}

// ScriptEnv is what a script factory gets to build one script instance.
type ScriptEnv struct {
	Host   entities.Host
	Sounds *audio.Cache
	Audio  SoundPlayer
	Assets *assets.Resolver
	Logger *slog.Logger
}

type ScriptFactory func(env ScriptEnv) entities.Script

type Options struct {
	Sounds *audio.Cache
	Audio  *audio.Player
	Assets *assets.Resolver
	Logger *slog.Logger
}

type World struct {
	Scheduler *scheduler.Scheduler

	mu          sync.RWMutex
	entityMap   map[entities.ID]*entities.Entity
	root        *entities.Children
	scripts     map[entities.ID]entities.Script
	factories   map[string]ScriptFactory
	permissions map[entities.ID]bool

	bus    *Bus
	sounds *audio.Cache
	audio  *audio.Player
	assets *assets.Resolver
	logger *slog.Logger
}

// NewWorld takes the top level entities of a scene; their children are
// registered along with them.
func NewWorld(scene []*entities.Entity, opts Options) *World {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sounds == nil {
		opts.Sounds = audio.NewCache(opts.Logger)
	}
	if opts.Assets == nil {
		opts.Assets, _ = assets.NewResolver(".")
	}

	w := &World{
		Scheduler:   scheduler.NewScheduler(opts.Logger),
		entityMap:   make(map[entities.ID]*entities.Entity),
		root:        entities.NewChildren(),
		scripts:     make(map[entities.ID]entities.Script),
		factories:   make(map[string]ScriptFactory),
		permissions: make(map[entities.ID]bool),
		bus:         NewBus(),
		sounds:      opts.Sounds,
		audio:       opts.Audio,
		assets:      opts.Assets,
		logger:      opts.Logger,
	}

	for _, e := range scene {
		w.root.AddChild(e)
		w.registerEntityAndChildren(e)
	}

	return w
}

func (w *World) registerEntityAndChildren(e *entities.Entity) {
	w.entityMap[e.ID()] = e
	for _, child := range e.GetChildren() {
		w.registerEntityAndChildren(child)
	}
}

func (w *World) RegisterScript(name string, factory ScriptFactory) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.factories[name] = factory
}

// Init attaches scripts to every scripted entity and runs their Initialize.
func (w *World) Init() error {
	w.mu.RLock()
	scripted := make([]*entities.Entity, 0)
	for _, e := range w.entityMap {
		if e.Script() != "" {
			scripted = append(scripted, e)
		}
	}
	w.mu.RUnlock()

	var errs []error
	for _, e := range scripted {
		if err := w.attachScript(e); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ScriptNames lists the registered scripts in name order.
func (w *World) ScriptNames() []string {
	w.mu.RLock()
	names := make([]string, 0, len(w.factories))
	for name := range w.factories {
		names = append(names, name)
	}
	w.mu.RUnlock()

	sort.Strings(names)
	return names
}

// CheckScripts reports every entity whose script is not registered, without
// starting any of them.
func (w *World) CheckScripts() error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var errs []error
	for _, e := range w.entityMap {
		if name := e.Script(); name != "" {
			if _, ok := w.factories[name]; !ok {
				errs = append(errs, fmt.Errorf("entity '%s': %w '%s'", e.Name(), ErrUnknownScript, name))
			}
		}
	}
	return errors.Join(errs...)
}

func (w *World) attachScript(e *entities.Entity) error {
	name := e.Script()

	w.mu.Lock()
	factory, ok := w.factories[name]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("entity '%s': %w '%s'", e.Name(), ErrUnknownScript, name)
	}
	w.mu.Unlock()

	script := factory(ScriptEnv{
		Host:   w,
		Sounds: w.sounds,
		Audio:  &announcer{world: w, source: e.ID()},
		Assets: w.assets,
		Logger: w.logger.With("script", name),
	})

	w.mu.Lock()
	w.scripts[e.ID()] = script
	w.mu.Unlock()

	return w.Dispatch(&entities.Event{Type: entities.EventCreate, Source: e.ID()})
}

// Spawn adds an entity at runtime, attaching its script if it has one.
func (w *World) Spawn(e *entities.Entity, parent entities.ID) error {
	w.mu.Lock()
	if parent != entities.NilID {
		p, ok := w.entityMap[parent]
		if !ok {
			w.mu.Unlock()
			return fmt.Errorf("spawn '%s' under '%s': %w", e.Name(), parent, ErrEntityNotFound)
		}
		if err := e.SetParent(p); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("spawn '%s': %w", e.Name(), err)
		}
	} else {
		w.root.AddChild(e)
	}
	w.registerEntityAndChildren(e)
	w.mu.Unlock()

	if e.Script() == "" {
		return nil
	}
	return w.attachScript(e)
}

// Despawn tears down the entity's script, which is expected to delete the
// entity. Unscripted entities are deleted directly.
func (w *World) Despawn(id entities.ID) error {
	w.mu.RLock()
	_, scripted := w.scripts[id]
	_, exists := w.entityMap[id]
	w.mu.RUnlock()

	if !exists {
		return fmt.Errorf("despawn '%s': %w", id, ErrEntityNotFound)
	}

	if scripted {
		if err := w.Dispatch(&entities.Event{Type: entities.EventDestroy, Source: id}); err != nil {
			return fmt.Errorf("despawn '%s': %w", id, err)
		}
	}

	w.DeleteEntity(id)
	return nil
}

// DespawnScripted tears down every running script, as on shutdown.
func (w *World) DespawnScripted() error {
	w.mu.RLock()
	ids := make([]entities.ID, 0, len(w.scripts))
	for id := range w.scripts {
		ids = append(ids, id)
	}
	w.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := w.Despawn(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch runs the event on the scheduler goroutine and waits for it. It
// must not be called from a script.
func (w *World) Dispatch(ev *entities.Event) error {
	w.mu.RLock()
	script, ok := w.scripts[ev.Source]
	w.mu.RUnlock()

	if !ok {
		return fmt.Errorf("dispatch %s to '%s': %w", ev.Type, ev.Source, ErrNoScript)
	}

	done := make(chan error, 1)
	w.Scheduler.Add(&scheduler.Job{
		NextRun: time.Now(),
		RunFunc: func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("script panicked handling %s: %v", ev.Type, r)
				}
				done <- err
			}()
			return ev.Deliver(script)
		},
	})

	return <-done
}

func (w *World) GetEntityById(id entities.ID) (*entities.Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entityMap[id]
	return e, ok
}

// Len counts every entity, children included.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entityMap)
}

// FindByAlias searches the whole hierarchy.
func (w *World) FindByAlias(alias string) []entities.Match {
	return w.root.GetChildrenByAlias(alias)
}

// TopLevel returns the entities without a parent.
func (w *World) TopLevel() []*entities.Entity {
	return w.root.GetChildren()
}

func (w *World) GetProperties(id entities.ID) (entities.Properties, bool) {
	e, ok := w.GetEntityById(id)
	if !ok {
		return entities.Properties{}, false
	}
	return e.Snapshot(), true
}

func (w *World) EditProperties(id entities.ID, edit entities.Edit) {
	if edit.IsEmpty() {
		return
	}

	w.mu.Lock()
	e, ok := w.entityMap[id]
	if !ok {
		w.mu.Unlock()
		w.logger.Warn("edit of unknown entity", "id", id)
		return
	}

	e.Apply(edit)

	var reparentErr error
	if edit.ParentID != nil {
		reparentErr = w.reparent(e, *edit.ParentID)
	}
	w.mu.Unlock()

	if reparentErr != nil {
		w.logger.Warn("parent edit rejected", "entity", e.Name(), "err", reparentErr)
	}

	for _, url := range edit.Textures {
		w.bus.Publish(id, fmt.Sprintf("The %s now shows %s.", e.Name(), path.Base(url)), nil)
	}
}

// reparent must be called with w.mu held.
func (w *World) reparent(e *entities.Entity, parentID entities.ID) error {
	var parent *entities.Entity
	if parentID != entities.NilID {
		p, ok := w.entityMap[parentID]
		if !ok {
			return fmt.Errorf("parent '%s': %w", parentID, ErrEntityNotFound)
		}
		parent = p
	}

	old := e.Parent()
	if err := e.SetParent(parent); err != nil {
		return err
	}

	if old == nil {
		w.root.RemoveChild(e)
	}
	if parent == nil {
		w.root.AddChild(e)
	}
	return nil
}

// DeleteEntity removes the entity. Its children move to the top level.
func (w *World) DeleteEntity(id entities.ID) {
	w.mu.Lock()
	e, ok := w.entityMap[id]
	if !ok {
		w.mu.Unlock()
		return
	}

	for _, child := range e.GetChildren() {
		if err := w.reparent(child, entities.NilID); err != nil {
			w.logger.Warn("could not detach child of deleted entity", "child", child.Name(), "err", err)
		}
	}

	if e.Parent() != nil {
		_ = e.SetParent(nil)
	} else {
		w.root.RemoveChild(e)
	}

	delete(w.entityMap, id)
	delete(w.scripts, id)
	w.mu.Unlock()

	w.bus.Publish(id, fmt.Sprintf("The %s vanishes.", e.Name()), nil)
	w.bus.Drop(id)
}

func (w *World) CanCreateObjects(actor entities.ID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.permissions[actor]
}

func (w *World) SetPermission(actor entities.ID, canRez bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.permissions[actor] = canRez
}

func (w *World) After(delay time.Duration, fn func()) func() bool {
	job := &scheduler.Job{
		NextRun: time.Now().Add(delay),
		RunFunc: func() error {
			fn()
			return nil
		},
	}
	w.Scheduler.Add(job)
	return func() bool { return w.Scheduler.Cancel(job) }
}

func (w *World) Watch(target, watcher entities.ID, inbox chan string) {
	w.bus.Subscribe(target, watcher, inbox)
}

func (w *World) Unwatch(watcher entities.ID) {
	w.bus.Unsubscribe(watcher)
}

func (w *World) PublishTo(watcher entities.ID, text string) {
	w.bus.PublishTo(watcher, text)
}

// SetListener places the audio listener. Sounds pan relative to it.
func (w *World) SetListener(pos entities.Vec3) {
	if w.audio != nil {
		w.audio.SetListener(pos)
	}
}

func (w *World) Close() {
	if n := w.Scheduler.Pending(); n > 0 {
		w.logger.Debug("dropping scheduled jobs", "pending", n)
	}
	w.Scheduler.Stop()
}

// announcer plays a script's sounds and tells the watchers of the source.
type announcer struct {
	world  *World
	source entities.ID
}

func (a *announcer) Play(s *audio.Sound, opts audio.PlayOptions) bool {
	played := false
	if a.world.audio != nil {
		played = a.world.audio.Play(s, opts)
	}
	if s != nil {
		a.world.bus.Publish(a.source, fmt.Sprintf("*%s*", path.Base(s.URL())), nil)
	}
	return played
}
