package gmlinject

import (
	"github.com/jward/gmlinject/internal/decl"
	"github.com/jward/gmlinject/internal/inject"
	"github.com/jward/gmlinject/internal/library"
	"github.com/jward/gmlinject/internal/project"
	"github.com/jward/gmlinject/internal/store"
)

// Public type aliases for internal types used in the Engine API.

type Declaration = decl.Declaration
type Define = decl.Define
type Macro = decl.Macro
type Kind = decl.Kind
type Library = library.Library
type LibraryEntry = library.Entry
type LoadError = library.LoadError
type Script = project.Script
type Store = store.Store
type ScriptRecord = store.ScriptRecord

const (
	KindDefine = decl.KindDefine
	KindMacro  = decl.KindMacro
)

// Sentinel errors, usable with errors.Is on anything BuildLibrary or
// Engine.Library returns.
var (
	ErrMalformedBlock         = decl.ErrMalformedBlock
	ErrMissingCloseParen      = decl.ErrMissingCloseParen
	ErrUnknownDeclarationType = decl.ErrUnknownDeclarationType
	ErrInvalidPattern         = decl.ErrInvalidPattern
)

// Sentinel comments delimiting the injected block.
const (
	StartHeader = inject.StartHeader
	EndHeader   = inject.EndHeader
)
