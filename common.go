package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jwaldrip/odin/cli"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/tiledaligner/cfg"
	"github.com/mudesheng/tiledaligner/genome"
	"github.com/mudesheng/tiledaligner/hitio"
	"github.com/mudesheng/tiledaligner/utils"
)

// env is what every sub-command shares once the global flags are resolved.
type env struct {
	opt    utils.ArgsOpt
	conf   cfg.Config
	genome *genome.Map
	logger *log.Entry
}

// resolveConfig overlays the global flags on the configure file.
func resolveConfig(opt utils.ArgsOpt) (cfg.Config, error) {
	conf := cfg.Default()
	if opt.CfgFn != "" {
		var err error
		if conf, err = cfg.Load(opt.CfgFn); err != nil {
			return conf, err
		}
	}
	if opt.LogLevel != "" {
		conf.LogLevel = opt.LogLevel
	}
	if opt.TileLength > 0 {
		conf.Split.TileLength = opt.TileLength
	}
	return conf, conf.Validate()
}

func loadGenome(fn string) (*genome.Map, error) {
	fp, err := hitio.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	gm, err := genome.LoadFai(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return gm, nil
}

func newEnv(opt utils.ArgsOpt) (*env, error) {
	conf, err := resolveConfig(opt)
	if err != nil {
		return nil, err
	}
	if err := utils.SetLogLevel(conf.LogLevel); err != nil {
		return nil, err
	}
	gm, err := loadGenome(opt.Genome)
	if err != nil {
		return nil, err
	}
	return &env{
		opt:    opt,
		conf:   conf,
		genome: gm,
		logger: log.WithField("run", uuid.New().String()),
	}, nil
}

// setup resolves the global flags of c's parent, starting a CPU profile
// when asked for. The returned stop func must be called on exit.
func setup(name string, c cli.Command) (*env, func()) {
	opt, err := utils.CheckGlobalArgs(c.Parent())
	if err != nil {
		log.Fatalf("[%s] check global Arguments error: %v", name, err)
	}
	e, err := newEnv(opt)
	if err != nil {
		log.Fatalf("[%s] %v", name, err)
	}
	stop := func() {}
	if opt.Cpuprofile != "" {
		stop = profile.Start(profile.CPUProfile, profile.ProfilePath(opt.Cpuprofile), profile.NoShutdownHook).Stop
	}
	e.logger.WithField("opt", fmt.Sprintf("%+v", opt)).Infof("[%s] start", name)
	return e, stop
}
