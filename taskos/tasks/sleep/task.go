package sleep

import (
	"rcos/taskos/kernel"
	"rcos/taskos/user"
)

// Task busy-waits on get_time, yielding in between, until ms milliseconds
// have passed.
type Task struct {
	ms int64
}

func New(ms int64) *Task { return &Task{ms: ms} }

func (t *Task) Run(ctx *kernel.Context) {
	p, err := user.New(ctx)
	if err != nil {
		panic(err)
	}

	start := p.GetTime()
	if start < 0 {
		p.Println("sleep: get_time failed")
		p.Exit(-1)
	}
	wait := start + t.ms
	for p.GetTime() < wait {
		p.Yield()
	}
	p.Printf("Test sleep OK! (%d ms)\n", t.ms)
	p.Exit(0)
}
