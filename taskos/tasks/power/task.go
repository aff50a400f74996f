package power

import (
	"rcos/taskos/kernel"
	"rcos/taskos/user"
)

const (
	modulus = 998244353
	ringLen = 100
)

// Task computes successive powers of base modulo a prime, printing progress
// and yielding every step iterations.
type Task struct {
	base  uint64
	iters int
	step  int
}

func New(base uint64, iters, step int) *Task {
	if step <= 0 {
		step = iters
	}
	return &Task{base: base, iters: iters, step: step}
}

// Pow returns base^exp mod 998244353 by repeated squaring.
func Pow(base uint64, exp int) uint64 {
	result := uint64(1)
	b := base % modulus
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = result * b % modulus
		}
		b = b * b % modulus
	}
	return result
}

func (t *Task) Run(ctx *kernel.Context) {
	p, err := user.New(ctx)
	if err != nil {
		panic(err)
	}

	var ring [ringLen]uint64
	ring[0] = 1
	cur := 0
	for i := 1; i <= t.iters; i++ {
		next := cur + 1
		if next == ringLen {
			next = 0
		}
		ring[next] = ring[cur] * t.base % modulus
		cur = next
		if i%t.step == 0 {
			p.Printf("power_%d [%d/%d]\n", t.base, i, t.iters)
			p.Yield()
		}
	}
	p.Printf("%d^%d = %d(MOD %d)\n", t.base, t.iters, ring[cur], modulus)
	if ring[cur] != Pow(t.base, t.iters) {
		p.Println("power: mismatch")
		p.Exit(-1)
	}
	p.Printf("Test power_%d OK!\n", t.base)
	p.Exit(0)
}
