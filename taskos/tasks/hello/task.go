package hello

import (
	"rcos/taskos/kernel"
	"rcos/taskos/user"
)

// Task prints a greeting and exits with code 0.
type Task struct{}

func New() *Task { return &Task{} }

func (t *Task) Run(ctx *kernel.Context) {
	p, err := user.New(ctx)
	if err != nil {
		panic(err)
	}
	p.Println("Hello, world from user mode program!")
	p.Exit(0)
}
