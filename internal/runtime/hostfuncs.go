package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/risor-io/risor/object"
)

// output collects the library text a generator produces.
type output struct {
	mu sync.Mutex
	b  strings.Builder
}

func (o *output) write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.b.WriteString(s)
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.b.String()
}

// block appends one directive, separated from whatever came before by a
// blank line.
func (o *output) block(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.b.Len() > 0 && !strings.HasSuffix(o.b.String(), "\n\n") {
		if strings.HasSuffix(o.b.String(), "\n") {
			o.b.WriteString("\n")
		} else {
			o.b.WriteString("\n\n")
		}
	}
	o.b.WriteString(s)
	o.b.WriteString("\n")
}

// makeEmitFn creates the "emit" host function.
//
// emit(text) appends raw library text.
func makeEmitFn(out *output) *object.Builtin {
	return object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit", 1, len(args))
		}
		text, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("emit: text must be a string, got %s", args[0].Type())
		}
		out.write(text.Value())
		return object.Nil
	})
}

// makeMacroFn creates the "macro" host function.
//
// macro(name, value) appends "#macro name value".
func makeMacroFn(out *output) *object.Builtin {
	return object.NewBuiltin("macro", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("macro", 2, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("macro: name must be a string, got %s", args[0].Type())
		}
		if strings.TrimSpace(name.Value()) == "" {
			return object.Errorf("macro: name must not be empty")
		}
		out.block(fmt.Sprintf("#macro %s %s", name.Value(), valueText(args[1])))
		return object.Nil
	})
}

// makeDefineFn creates the "define" host function.
//
// define(name, body[, params]) appends a define whose body is indented
// under its header. params is a list of strings.
func makeDefineFn(out *output) *object.Builtin {
	return object.NewBuiltin("define", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 || len(args) > 3 {
			return object.NewArgsError("define", 2, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("define: name must be a string, got %s", args[0].Type())
		}
		if strings.TrimSpace(name.Value()) == "" {
			return object.Errorf("define: name must not be empty")
		}
		body, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("define: body must be a string, got %s", args[1].Type())
		}

		header := "#define " + name.Value()
		if len(args) == 3 {
			list, ok := args[2].(*object.List)
			if !ok {
				return object.Errorf("define: params must be a list, got %s", args[2].Type())
			}
			params := make([]string, 0, len(list.Value()))
			for _, item := range list.Value() {
				s, ok := item.(*object.String)
				if !ok {
					return object.Errorf("define: param must be a string, got %s", item.Type())
				}
				params = append(params, s.Value())
			}
			header += "(" + strings.Join(params, ", ") + ")"
		}

		var b strings.Builder
		b.WriteString(header)
		for _, line := range strings.Split(strings.Trim(body.Value(), "\n"), "\n") {
			b.WriteString("\n")
			if strings.TrimSpace(line) != "" {
				b.WriteString("    ")
				b.WriteString(line)
			}
		}
		out.block(b.String())
		return object.Nil
	})
}

// valueText renders a macro value. Strings are used verbatim, anything
// else uses its Risor inspection.
func valueText(obj object.Object) string {
	if s, ok := obj.(*object.String); ok {
		return s.Value()
	}
	return obj.Inspect()
}

// logObject provides log.info/warn/error/debug methods for generators.
type logObject struct {
	logger *log.Logger
	script string
}

func (l *logObject) Debug(msg string) {
	l.logger.Debug(msg, "script", l.script)
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "script", l.script)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "script", l.script)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "script", l.script)
}
