package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"example.com/parentator/assets"
	"example.com/parentator/audio"
	"example.com/parentator/config"
	"example.com/parentator/logging"
	"example.com/parentator/lua_runtime"
	"example.com/parentator/parser"
	"example.com/parentator/parser/commands"
	"example.com/parentator/scripts"
	"example.com/parentator/world"
	"example.com/parentator/world/entities"
	"example.com/parentator/world/player"
	"github.com/gopxl/beep"
	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "parentator",
	Short:        "A tiny world with a wand that links objects to parents",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("parentator version %s\n", version))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the telnet console",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the config and scene and report problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		gameWorld, resolver, err := buildWorld(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer gameWorld.Close()

		if err := gameWorld.CheckScripts(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d entities ok\n", cfg.ScenePath, gameWorld.Len())
		fmt.Fprintf(out, "scripts: %s\n", strings.Join(gameWorld.ScriptNames(), ", "))
		fmt.Fprintf(out, "assets: %s\n", resolver.Base())
		return nil
	},
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(level, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func loadScene(path string) ([]*entities.Entity, error) {
	lr := lua_runtime.NewLuaRuntime()
	defer lr.Close()

	scene, err := lr.LoadScene(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	return scene, nil
}

// buildWorld loads the scene and registers every script without starting
// them.
func buildWorld(cfg *config.Config, logger *slog.Logger, out *audio.Player) (*world.World, *assets.Resolver, error) {
	scene, err := loadScene(cfg.ScenePath)
	if err != nil {
		return nil, nil, err
	}

	resolver, err := assets.NewResolver(cfg.AssetBase)
	if err != nil {
		return nil, nil, err
	}

	gameWorld := world.NewWorld(scene, world.Options{
		Sounds: audio.NewCache(logging.Component(logger, "sounds")),
		Audio:  out,
		Assets: resolver,
		Logger: logger,
	})
	scripts.Register(gameWorld, scripts.Options{
		ResetDelay: cfg.ResetDelay(),
		Volume:     cfg.Tool.Volume,
	})

	return gameWorld, resolver, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var out *audio.Player
	if cfg.Audio.Enabled {
		out = audio.NewPlayer(beep.SampleRate(cfg.Audio.SampleRate), logging.Component(logger, "audio"))
		if err := out.StartSpeaker(time.Duration(cfg.Audio.BufferMs) * time.Millisecond); err != nil {
			logger.Warn("audio output unavailable, continuing silently", "err", err)
			out = nil
		} else {
			defer out.Close()
		}
	}

	gameWorld, resolver, err := buildWorld(cfg, logger, out)
	if err != nil {
		return err
	}
	defer gameWorld.Close()

	if err := gameWorld.Init(); err != nil {
		return fmt.Errorf("failed to start scripts: %w", err)
	}

	reg := commands.NewRegistry()
	if err := reg.RegisterBuiltInCommands(); err != nil {
		return fmt.Errorf("failed to register built-in commands: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	logger.Info("server listening", "addr", listener.Addr().String(), "assets", resolver.Base())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("accept failed", "err", err)
			continue
		}
		go handleConnection(conn, gameWorld, reg, cfg, logger)
	}

	logger.Info("shutting down")
	if err := gameWorld.DespawnScripted(); err != nil {
		logger.Warn("teardown incomplete", "err", err)
	}
	return nil
}

func handleConnection(conn net.Conn, gameWorld *world.World, reg *commands.Registry, cfg *config.Config, logger *slog.Logger) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	var name string

	for {
		if _, err := fmt.Fprint(conn, "Who holds the wand today? "); err != nil {
			return
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		name = strings.TrimSpace(line)

		vdn := player.NameValidation(name)
		if vdn != "" {
			fmt.Fprint(conn, vdn)
			continue
		}
		break
	}

	inbox := make(chan string, 64)
	p := player.NewPlayer(name, cfg.PlayersCanRez, gameWorld, inbox)
	log := logger.With("player", p.Name)
	log.Info("player connected")

	// the bus may still hold the inbox, so it is never closed; done stops
	// the writer instead
	done := make(chan struct{})
	go handleConnectionIncoming(conn, inbox, done)

	fmt.Fprintf(conn, "Welcome, %s. Type 'help' to see what you can do.\r\n", p.Name)

	handleConnectionOutgoing(conn, reader, gameWorld, reg, p, cfg, log)

	p.Unequip()
	close(done)
	log.Info("connection closed")
}

func handleConnectionIncoming(conn net.Conn, inbox chan string, done chan struct{}) {
	for {
		select {
		case msg := <-inbox:
			// Use CRLF for telnet clients
			if _, err := fmt.Fprint(conn, msg+"\r\n"); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func handleConnectionOutgoing(conn net.Conn, reader *bufio.Reader, gameWorld *world.World, reg *commands.Registry, p *player.Player, cfg *config.Config, log *slog.Logger) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.ToLower(line) == "quit" {
			break
		}

		// a number answers the last "which one?" question
		if pending := p.Pending; pending != nil {
			if n, err := strconv.Atoi(line); err == nil {
				out, err := pending.Choose(n)
				if err != nil {
					fmt.Fprintf(conn, "%s\r\n", err.Error())
					continue
				}
				p.Pending = nil
				reply(conn, out)
				continue
			}
			p.Pending = nil
		}

		if coolDownTime := p.CooldownRemaining(); coolDownTime > 0 {
			fmt.Fprintf(conn, "You need to catch your breath. Try again in %.1fs\r\n", coolDownTime.Seconds())
			continue
		}

		message, err := execute(reg, p, line)
		if err != nil {
			var amb *player.AmbiguityError
			if errors.As(err, &amb) {
				p.Pending = &player.PendingAction{Ambiguity: amb}
				reply(conn, amb.Error())
				continue
			}

			log.Warn("command failed", "line", line, "err", err)
			reply(conn, err.Error())
		} else {
			reply(conn, message)
		}

		p.StartCooldown(cfg.RateLimit())
	}

	if err := scanner.Err(); err != nil {
		log.Warn("connection error", "err", err)
	}
}

func execute(reg *commands.Registry, p *player.Player, line string) (string, error) {
	cmd, err := parser.Parse(reg, line)
	if err != nil {
		return "", err
	}
	if cmd == nil {
		return "I don't understand that. Type 'help' for a list of commands.", nil
	}

	switch cmd.Kind {
	case "help":
		return help(reg, cmd.Params["command"]), nil
	case "look":
		return p.Look(cmd.Params["target"])
	case "equip":
		return p.Equip(cmd.Params["target"])
	case "throw":
		msg, err := p.Throw(cmd.Params["target"])
		if errors.Is(err, player.ErrNothingEquipped) {
			return "You have nothing to throw. Equip something first.", nil
		}
		return msg, err
	case "drop":
		return p.Unequip(), nil
	}

	return "", fmt.Errorf("no handler for command '%s'", cmd.Kind)
}

func help(reg *commands.Registry, verb string) string {
	var b strings.Builder

	if verb != "" {
		canonical, ok := reg.VerbAliases[verb]
		if !ok {
			return fmt.Sprintf("There is no '%s' command.", verb)
		}
		for _, pat := range reg.Patterns {
			if pat.Tokens[0].Literal == canonical {
				fmt.Fprintf(&b, "  %-24s %s\n", pat.String(), pat.HelpMessage)
			}
		}
		return strings.TrimRight(b.String(), "\n")
	}

	verbs := make([]string, 0, len(reg.Commands))
	for v := range reg.Commands {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)

	b.WriteString("Commands:")
	for _, v := range verbs {
		fmt.Fprintf(&b, " %s", v)
	}
	b.WriteString("\nType 'help <command>' for details, 'quit' to leave.")
	return b.String()
}

func reply(conn net.Conn, msg string) {
	if msg == "" {
		return
	}
	fmt.Fprint(conn, strings.ReplaceAll(msg, "\n", "\r\n")+"\r\n")
}
