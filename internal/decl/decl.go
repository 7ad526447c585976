// Package decl models injectable library declarations: parameterized
// #define blocks and single-line #macro substitutions.
//
// A declaration knows how to render itself as script text and carries two
// patterns: one recognizing a usage of its name, one recognizing a local
// declaration of the same name inside a script.
package decl

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// Kind is the directive keyword that introduces a declaration.
type Kind string

const (
	KindDefine Kind = "define"
	KindMacro  Kind = "macro"
)

// Declaration is implemented by *Define and *Macro only.
type Declaration interface {
	Name() string
	Kind() Kind
	// Source is the rendered text injected into scripts verbatim.
	Source() string
	UsePattern() *Pattern
	GivePattern() *Pattern

	sealed()
}

// UsedIn reports whether text references d.
func UsedIn(d Declaration, text string) bool {
	return d.UsePattern().MatchString(text)
}

// GivenIn reports whether text declares d's name itself.
func GivenIn(d Declaration, text string) bool {
	return d.GivePattern().MatchString(text)
}

// Key identifies a declaration by value. Two declarations are equal iff
// their keys are equal.
type Key struct {
	Name   string
	Source string
	Use    string
	Give   string
}

// KeyOf returns d's identity key.
func KeyOf(d Declaration) Key {
	return Key{
		Name:   d.Name(),
		Source: d.Source(),
		Use:    d.UsePattern().String(),
		Give:   d.GivePattern().String(),
	}
}

// Equal reports whether a and b have the same name, text and patterns.
func Equal(a, b Declaration) bool {
	return KeyOf(a) == KeyOf(b)
}

// Define is a documented, optionally parameterized #define block.
type Define struct {
	name    string
	version int
	docs    string
	params  []string
	source  string
	use     *Pattern
	give    *Pattern
}

// DefineOption configures NewDefine.
type DefineOption func(*Define)

// WithVersion sets the version shown in the rendered header comment.
func WithVersion(v int) DefineOption {
	return func(d *Define) { d.version = v }
}

// WithDocs sets the documentation rendered as a leading comment block.
func WithDocs(docs string) DefineOption {
	return func(d *Define) { d.docs = docs }
}

// WithParams sets the parameter names rendered in the header.
func WithParams(params ...string) DefineOption {
	return func(d *Define) { d.params = append([]string(nil), params...) }
}

// NewDefine renders a define named name whose body is content.
func NewDefine(name, content string, opts ...DefineOption) (*Define, error) {
	if name == "" {
		return nil, fmt.Errorf("decl: %w: define without a name", ErrMalformedBlock)
	}
	d := &Define{name: name}
	for _, opt := range opts {
		opt(d)
	}
	if d.version < 0 {
		return nil, fmt.Errorf("decl: %w: negative version %d for %s", ErrMalformedBlock, d.version, name)
	}

	paramString := ""
	if len(d.params) > 0 {
		paramString = "(" + strings.Join(d.params, ", ") + ")"
	}
	head := "#" + string(KindDefine) + " " + name + paramString

	docs := d.docs
	if strings.TrimSpace(docs) != "" {
		docs = indent(dedent.Dedent(docs), "    // ") + "\n"
	}
	body := indent(dedent.Dedent(content), "    ")

	final := fmt.Sprintf("%s // Version %d\n%s%s", head, d.version, docs, body)
	d.source = strings.TrimSpace(dedent.Dedent(final))

	var err error
	if d.use, err = CompilePattern(defineUsePattern(name)); err != nil {
		return nil, err
	}
	if d.give, err = CompilePattern(givePattern(KindDefine, name)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Define) Name() string          { return d.name }
func (d *Define) Kind() Kind            { return KindDefine }
func (d *Define) Source() string        { return d.source }
func (d *Define) UsePattern() *Pattern  { return d.use }
func (d *Define) GivePattern() *Pattern { return d.give }
func (d *Define) Version() int          { return d.version }
func (d *Define) Docs() string          { return d.docs }

// Params returns a copy of the parameter names.
func (d *Define) Params() []string {
	return append([]string(nil), d.params...)
}

func (d *Define) String() string { return d.name }

func (*Define) sealed() {}

// Macro is a single-line #macro name-to-text substitution.
type Macro struct {
	name   string
	value  string
	source string
	use    *Pattern
	give   *Pattern
}

// NewMacro renders "#macro name value".
func NewMacro(name, value string) (*Macro, error) {
	if name == "" {
		return nil, fmt.Errorf("decl: %w: macro without a name", ErrMalformedBlock)
	}
	m := &Macro{
		name:   name,
		value:  value,
		source: "#" + string(KindMacro) + " " + name + " " + value,
	}

	var err error
	if m.use, err = CompilePattern(macroUsePattern(name)); err != nil {
		return nil, err
	}
	if m.give, err = CompilePattern(givePattern(KindMacro, name)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Macro) Name() string          { return m.name }
func (m *Macro) Kind() Kind            { return KindMacro }
func (m *Macro) Source() string        { return m.source }
func (m *Macro) UsePattern() *Pattern  { return m.use }
func (m *Macro) GivePattern() *Pattern { return m.give }
func (m *Macro) Value() string         { return m.value }
func (m *Macro) String() string        { return m.name }

func (*Macro) sealed() {}
