package yield

import (
	"rcos/taskos/kernel"
	"rcos/taskos/user"
)

const iterations = 5

// Task prints a line, yields, and repeats. Several instances interleave
// their output, which shows the round-robin order.
type Task struct {
	label string
}

func New(label string) *Task { return &Task{label: label} }

func (t *Task) Run(ctx *kernel.Context) {
	p, err := user.New(ctx)
	if err != nil {
		panic(err)
	}
	p.Printf("Hello, I am process %s.\n", t.label)
	for i := 0; i < iterations; i++ {
		p.Yield()
		p.Printf("Back in process %s, iteration %d.\n", t.label, i)
	}
	p.Printf("yield %s pass.\n", t.label)
	p.Exit(0)
}
