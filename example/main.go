// Demonstrates schema derivation, preset layers, wildcard assignment,
// cross-field references, and polymorphic fields.
package main

import (
	"fmt"
	"log"
	"os"

	"construct"
)

// Encoder is the polymorphic contract resolved through the registry.
type Encoder interface {
	Kind() string
}

type LSTMEncoder struct {
	Size   int `conf:"size,default=256"`
	Layers int `conf:"layers,default=1"`
}

func (e *LSTMEncoder) Kind() string { return "lstm" }

type TransformerEncoder struct {
	Size  int `conf:"size,default=512"`
	Heads int `conf:"heads,default=8"`
}

func (e *TransformerEncoder) Kind() string { return "transformer" }

type Optimizer struct {
	LR       float64 `conf:"lr,default=0.001"`
	Momentum float64 `conf:"momentum,default=0.9"`
}

type Experiment struct {
	Name    string    `conf:"name,required"`
	Seed    int       `conf:"seed,default=42"`
	Encoder Encoder   `conf:"encoder,ns=encoders,factory=lstm"`
	Optim   Optimizer `conf:"optim"`
	EvalLR  float64   `conf:"eval_lr"`
}

func main() {
	reg := construct.NewRegistry()
	reg.MustRegister("encoders", "lstm", construct.MustFromStruct(&LSTMEncoder{}))
	reg.MustRegister("encoders", "transformer", construct.MustFromStruct(&TransformerEncoder{}))

	// Defaults layer, then CLI overrides: later layers win, and the
	// "...size" wildcard reaches the encoder wherever it nests. eval_lr
	// tracks optim.lr by reference.
	argv := os.Args[1:]
	if len(argv) == 0 {
		argv = []string{
			"--name", "demo",
			"--encoder", "transformer",
			"--...size", "1024",
			"--eval_lr", "@optim.lr",
		}
	}

	v, err := construct.NewBuilder().
		WithStruct(&Experiment{}).
		WithRegistry(reg).
		WithValues(map[string]any{"optim": map[string]any{"lr": 0.01}}, "defaults").
		WithArgs(argv).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	exp := v.(*Experiment)
	fmt.Printf("name=%s seed=%d encoder=%s eval_lr=%v\n",
		exp.Name, exp.Seed, exp.Encoder.Kind(), exp.EvalLR)
}
