// Package action holds the prompt template tables for the SocialVault
// functions and the dispatcher that turns a JSON action request into a
// typed request variant and a rendered prompt pair.
package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Function identifies one of the prompt-dispatch endpoints.
type Function string

const (
	ContentGenerator Function = "content-generator"
	Analytics        Function = "analytics"
	Automation       Function = "automation"
	VisualTools      Function = "visual-tools"
)

// Functions lists every function in a stable order.
var Functions = []Function{ContentGenerator, Analytics, Automation, VisualTools}

// Name is the action discriminator carried in the request body.
type Name string

var (
	// ErrInvalidAction is returned when the action is not in the function's table.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidRequest is returned when the body cannot be decoded.
	ErrInvalidRequest = errors.New("invalid request body")
	// ErrUnknownFunction is returned for a function name with no table.
	ErrUnknownFunction = errors.New("unknown function")
)

// MissingFieldError reports a required context field that was absent or empty.
type MissingFieldError struct {
	Action Name
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("action %s: missing required field %q", e.Action, e.Field)
}

// PromptPair is the system/user message pair sent to the completion API.
type PromptPair struct {
	System string
	User   string
}

// Sampling carries the per-call completion parameters.
type Sampling struct {
	Temperature float32
	MaxTokens   int
}

// Request is implemented by one struct per action. The unexported methods
// keep the set of variants closed to this package.
type Request interface {
	Action() Name
	userPrompt() string
	validate() error
}

// defaulter is implemented by variants with optional fields that take defaults.
type defaulter interface {
	applyDefaults()
}

// Call is a fully dispatched request, ready for the completion gateway.
type Call struct {
	Function Function
	Request  Request
	Prompt   PromptPair
	Sampling Sampling
}

// Action returns the dispatched action name.
func (c Call) Action() Name { return c.Request.Action() }

type entry struct {
	system      string
	temperature float32
	decode      func(json.RawMessage) (Request, error)
}

// Table maps the action names of one function to their templates.
type Table struct {
	function  Function
	maxTokens int
	entries   map[Name]entry
}

// Actions returns the action names of the table, sorted.
func (t *Table) Actions() []Name {
	names := make([]Name, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Has reports whether the table knows the action.
func (t *Table) Has(name Name) bool {
	_, ok := t.entries[name]
	return ok
}

// MaxTokens returns the completion ceiling shared by every action of the function.
func (t *Table) MaxTokens() int { return t.maxTokens }

var tables = map[Function]*Table{}

func register(fn Function, maxTokens int, entries map[Name]entry) {
	tables[fn] = &Table{function: fn, maxTokens: maxTokens, entries: entries}
}

// TableFor returns the template table of fn.
func TableFor(fn Function) (*Table, error) {
	t, ok := tables[fn]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, fn)
	}
	return t, nil
}

// ParseFunction validates a function name taken from a URL or flag.
func ParseFunction(s string) (Function, error) {
	fn := Function(s)
	if _, ok := tables[fn]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFunction, s)
	}
	return fn, nil
}

type envelope struct {
	Action Name `json:"action"`
}

// Dispatch decodes body for fn, selects the action variant and renders its prompts.
func Dispatch(fn Function, body []byte) (Call, error) {
	t, err := TableFor(fn)
	if err != nil {
		return Call{}, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return Call{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidRequest)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Call{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	e, ok := t.entries[env.Action]
	if !ok {
		return Call{}, fmt.Errorf("%w: %q", ErrInvalidAction, env.Action)
	}

	req, err := e.decode(body)
	if err != nil {
		return Call{}, err
	}

	return Call{
		Function: fn,
		Request:  req,
		Prompt: PromptPair{
			System: e.system,
			User:   req.userPrompt(),
		},
		Sampling: Sampling{
			Temperature: e.temperature,
			MaxTokens:   t.maxTokens,
		},
	}, nil
}

// decodeAs builds the entry decoder for variant T.
func decodeAs[T any, P interface {
	*T
	Request
}]() func(json.RawMessage) (Request, error) {
	return func(raw json.RawMessage) (Request, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		p := P(&v)
		if d, ok := any(p).(defaulter); ok {
			d.applyDefaults()
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		return p, nil
	}
}
