package app

import (
	"rcos/taskos/kernel"
	"rcos/taskos/tasks/hello"
	"rcos/taskos/tasks/power"
	"rcos/taskos/tasks/sleep"
	"rcos/taskos/tasks/taskinfo"
	"rcos/taskos/tasks/yield"
)

type program struct {
	name  string
	build func(cfg Config) kernel.Task
}

var programs = []program{
	{"hello", func(Config) kernel.Task { return hello.New() }},
	{"yield_a", func(Config) kernel.Task { return yield.New("A") }},
	{"yield_b", func(Config) kernel.Task { return yield.New("B") }},
	{"yield_c", func(Config) kernel.Task { return yield.New("C") }},
	{"power_3", func(Config) kernel.Task { return power.New(3, 200000, 10000) }},
	{"power_5", func(Config) kernel.Task { return power.New(5, 140000, 7000) }},
	{"power_7", func(Config) kernel.Task { return power.New(7, 160000, 8000) }},
	{"sleep", func(cfg Config) kernel.Task { return sleep.New(cfg.SleepMs) }},
	{"taskinfo", func(cfg Config) kernel.Task { return taskinfo.New(cfg.SleepMs) }},
}

// DefaultPrograms returns every built-in program name in load order.
func DefaultPrograms() []string {
	names := make([]string, 0, len(programs))
	for _, p := range programs {
		names = append(names, p.name)
	}
	return names
}

func newProgram(name string, cfg Config) (kernel.Task, bool) {
	for _, p := range programs {
		if p.name == name {
			return p.build(cfg), true
		}
	}
	return nil, false
}
