package utils

import (
	"fmt"

	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"
)

type ArgsOpt struct {
	CfgFn      string
	Genome     string
	TileLength int
	NumCPU     int
	Cpuprofile string
	LogLevel   string
}

// CheckGlobalArgs reads the flags every sub-command shares from the root command c.
func CheckGlobalArgs(c cli.Command) (opt ArgsOpt, err error) {
	opt.CfgFn = c.Flag("C").String()
	opt.Genome = c.Flag("genome").String()
	if opt.Genome == "" {
		return opt, fmt.Errorf("[CheckGlobalArgs] args 'genome' not set")
	}
	opt.Cpuprofile = c.Flag("cpuprofile").String()
	opt.LogLevel = c.Flag("log-level").String()

	var ok bool
	opt.TileLength, ok = c.Flag("K").Get().(int)
	if !ok || opt.TileLength < 0 {
		return opt, fmt.Errorf("[CheckGlobalArgs] args 'K': %v set error", c.Flag("K").String())
	}
	opt.NumCPU, ok = c.Flag("t").Get().(int)
	if !ok || opt.NumCPU < 1 {
		return opt, fmt.Errorf("[CheckGlobalArgs] args 't': %v set error", c.Flag("t").String())
	}
	return opt, nil
}

// SetLogLevel sets the level of the standard logrus logger; an empty
// level leaves it unchanged.
func SetLogLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("[SetLogLevel] %w", err)
	}
	log.SetLevel(lvl)
	return nil
}

func AbsInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func MinInt(a, b int) int {
	if a > b {
		return b
	}
	return a
}
