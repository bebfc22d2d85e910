package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/loving2/Chisels-and-Bits/config"
	"github.com/loving2/Chisels-and-Bits/eligibility"
	"github.com/loving2/Chisels-and-Bits/provider"
	"github.com/loving2/Chisels-and-Bits/registry"
	"github.com/loving2/Chisels-and-Bits/storage"
	"github.com/loving2/Chisels-and-Bits/tracker"
	"github.com/loving2/Chisels-and-Bits/world"
)

// app holds everything the commands of the tool work on.
type app struct {
	cfg      *config.Config
	registry *registry.Registry
	manager  *eligibility.Manager
	provider *provider.Provider
	tracker  *tracker.Tracker
	area     *world.Area
	mutator  *world.Mutator
	closeFns []func() error
}

func main() {
	color.Blue("Collecting Information...")
	cfg, args, err := config.CollectInfo()
	if err != nil {
		fail("Main: Error collecting config (%v)", err)
	}
	color.Green("Information Collected!")

	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage()
		fail("Main: Unknown command %q", args[0])
	}
	if len(args)-1 != len(cmd.args) {
		fail("Main: Usage: %v %v", args[0], strings.Join(cmd.args, " "))
	}

	a, err := setup(cfg)
	if err != nil {
		fail("Main: %v", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		s := <-c
		fmt.Println("Got signal:", s)
		a.close()
		os.Exit(1)
	}()

	err = cmd.run(a, args[1:])
	a.close()
	if err != nil {
		fail("Main: %v failed (%v)", args[0], err)
	}
}

// setup opens the block store and journal and wires the registry, eligibility cache and world together.
func setup(cfg *config.Config) (*app, error) {
	storage.BoundsChecks = cfg.DebugBounds
	a := &app{cfg: cfg}

	color.Blue("Loading materials...")
	var err error
	if cfg.Materials != "" {
		a.registry, err = registry.Load(cfg.Materials)
	} else {
		a.registry, err = registry.Default()
	}
	if err != nil {
		return nil, err
	}
	if a.manager, err = eligibility.NewManager(cfg.EligibilityCacheSize, eligibility.FromSource(a.registry)); err != nil {
		return nil, err
	}
	a.manager.Resize(a.registry.Len())
	a.manager.Follow(a.registry)
	color.Green("%v materials loaded", a.registry.Len())

	color.Blue("Opening block database %v...", cfg.Database)
	if a.provider, err = provider.Open(cfg.Database, cfg.BitsPerBlockSide); err != nil {
		return nil, err
	}
	a.closeFns = append(a.closeFns, a.provider.Close)

	var journal tracker.Journal
	if cfg.Journal != "" {
		j, err := tracker.OpenSQLiteJournal(cfg.Journal)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closeFns = append(a.closeFns, j.Close)
		journal = j
	}
	a.tracker = tracker.New(cfg.MaxUndo, journal)
	if err := a.tracker.Restore(); err != nil {
		a.close()
		return nil, err
	}

	a.area = world.NewArea(cfg.WorldMinY, cfg.WorldMaxY, a.manager)
	a.mutator = world.New(a.area, a.provider, a.registry, cfg.BitsPerBlockSide, world.WithRecorder(a.tracker))
	color.Green("Ready")
	return a, nil
}

func (a *app) close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		if err := a.closeFns[i](); err != nil {
			color.Yellow("Main: Error while closing (%v)", err)
		}
	}
	a.closeFns = nil
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Usage: bitsctl [-c config] <command> [arguments]")
	for _, name := range names {
		cmd := commands[name]
		fmt.Printf("  %-8v %-28v %v\n", name, strings.Join(cmd.args, " "), cmd.help)
	}
}

func fail(format string, a ...any) {
	color.New(color.FgRed).Printf(format+"\n", a...)
	os.Exit(1)
}
