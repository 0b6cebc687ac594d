// Package captcha issues and checks the arithmetic question that gates the login form.
package captcha

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrEmptyAnswer leaves the live challenge in place so the user can retry.
	ErrEmptyAnswer = errors.New("please answer the CAPTCHA question")
	// ErrWrongAnswer always replaces the live challenge.
	ErrWrongAnswer = errors.New("incorrect CAPTCHA answer, please try again")
)

type Operator string

const (
	Add      Operator = "+"
	Subtract Operator = "-"
	Multiply Operator = "*"
)

var operators = []Operator{Add, Subtract, Multiply}

// Operands are drawn from 1..maxOperand inclusive.
const maxOperand = 10

// Challenge is one issued question. It is never mutated after generation.
type Challenge struct {
	Serial   uint64   `json:"serial"`
	OperandA int      `json:"num1"`
	OperandB int      `json:"num2"`
	Operator Operator `json:"operation"`

	expected string
}

// ExpectedAnswer is the result rendered in base 10, fixed at generation time.
func (c Challenge) ExpectedAnswer() string {
	return c.expected
}

func (c Challenge) Question() string {
	return fmt.Sprintf("What is %d %s %d?", c.OperandA, c.Operator, c.OperandB)
}

func newChallenge(serial uint64, a, b int, op Operator) Challenge {
	var result int
	switch op {
	case Add:
		result = a + b
	case Subtract:
		result = a - b
	case Multiply:
		result = a * b
	}
	return Challenge{
		Serial:   serial,
		OperandA: a,
		OperandB: b,
		Operator: op,
		expected: strconv.Itoa(result),
	}
}

// Source supplies uniform integers in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Generator owns exactly one live Challenge plus the form state around it:
// the answer typed so far and the last verification error.
type Generator struct {
	mu      sync.Mutex
	src     Source
	serial  uint64
	live    Challenge
	answer  string
	lastErr error
}

// NewGenerator creates a generator with a live challenge already issued.
// A nil src uses the process-wide random source.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = globalSource{}
	}
	g := &Generator{src: src}
	g.generateLocked()
	return g
}

// Generate supersedes the live challenge and clears the entered answer and error.
func (g *Generator) Generate() Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateLocked()
}

func (g *Generator) generateLocked() Challenge {
	a := g.src.IntN(maxOperand) + 1
	b := g.src.IntN(maxOperand) + 1
	op := operators[g.src.IntN(len(operators))]

	g.serial++
	g.live = newChallenge(g.serial, a, b, op)
	g.answer = ""
	g.lastErr = nil
	return g.live
}

// Current returns the live challenge.
func (g *Generator) Current() Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.live
}

// SetAnswer records what the user has typed so far.
func (g *Generator) SetAnswer(answer string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answer = answer
}

func (g *Generator) Answer() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.answer
}

// Err is the error shown inline under the question, nil after a fresh Generate.
func (g *Generator) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// Verify compares the trimmed answer to the expected text. The comparison is on
// strings, so "07" does not match "7".
func (g *Generator) Verify(submitted string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	answer := strings.TrimSpace(submitted)
	if answer == "" {
		g.lastErr = ErrEmptyAnswer
		return ErrEmptyAnswer
	}
	if answer != g.live.expected {
		g.generateLocked()
		// set after the re-roll so the message survives it
		g.lastErr = ErrWrongAnswer
		return ErrWrongAnswer
	}
	g.lastErr = nil
	return nil
}
