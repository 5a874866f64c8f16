// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader normalizes parsing-backend outcomes into eino documents.
// A Loader wraps one LoaderConfig and one Backend; each Load call invokes the
// backend once and reshapes the outcome into an ordered document list.
package loader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/anyparser-loader/pkg/types"
)

const typeName = "Anyparser"

// Backend is the external parsing service. Parse may block on network I/O
// and may fail with any error.
type Backend interface {
	// Name identifies the backend in error messages.
	Name() string

	// Parse parses target (a file path or URL) and returns the raw outcome.
	Parse(ctx context.Context, target string) (types.Outcome, error)
}

// LoadResult is the single value delivered by LoadAsync.
type LoadResult struct {
	Docs []*schema.Document
	Err  error
}

// Loader implements document.Loader over a parsing Backend. It holds no
// mutable state; concurrent calls are safe.
type Loader struct {
	cfg     types.LoaderConfig
	backend Backend
	idGen   IDGenerator
}

var _ document.Loader = (*Loader)(nil)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// New validates cfg and returns a Loader bound to backend. Exactly one of
// cfg.FilePath and cfg.URL must be set. No backend call is made.
func New(cfg types.LoaderConfig, backend Backend, opts ...Option) (*Loader, error) {
	if cfg.FilePath == "" && cfg.URL == "" {
		return nil, &ConfigurationError{Msg: msgNoTarget}
	}
	if cfg.FilePath != "" && cfg.URL != "" {
		return nil, &ConfigurationError{Msg: msgBothTargets}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, configError(err)
	}
	if backend == nil {
		return nil, &ConfigurationError{Msg: "a parsing backend is required"}
	}

	o := options{idGen: DefaultIDGenerator}
	for _, opt := range opts {
		opt(&o)
	}

	return &Loader{
		cfg:     cfg.WithDefaults(),
		backend: backend,
		idGen:   o.idGen,
	}, nil
}

func configError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigurationError{Msg: err.Error()}
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("invalid %s %v (must be %s %s)", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("invalid %s %v", fe.Field(), fe.Value()))
		}
	}
	return &ConfigurationError{Msg: strings.Join(parts, "; ")}
}

// Config returns a copy of the loader configuration with defaults applied.
func (l *Loader) Config() types.LoaderConfig {
	return l.cfg
}

// GetType returns the component type reported to eino callbacks.
func (l *Loader) GetType() string { return typeName }

// IsCallbacksEnabled reports that Load emits its own callbacks.
func (l *Loader) IsCallbacksEnabled() bool { return true }

// Load blocks until LoadAsync delivers its result. An empty src.URI loads the
// configured target.
func (l *Loader) Load(ctx context.Context, src document.Source, opts ...document.LoaderOption) ([]*schema.Document, error) {
	res := <-l.LoadAsync(ctx, src, opts...)
	return res.Docs, res.Err
}

// LoadAsync starts a load and returns a channel that yields exactly one
// LoadResult and is then closed.
func (l *Loader) LoadAsync(ctx context.Context, src document.Source, opts ...document.LoaderOption) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		defer close(ch)
		docs, err := l.load(ctx, src, opts...)
		ch <- LoadResult{Docs: docs, Err: err}
	}()
	return ch
}

func (l *Loader) load(ctx context.Context, src document.Source, opts ...document.LoaderOption) (docs []*schema.Document, err error) {
	if src.URI == "" {
		src.URI = l.cfg.Target()
	}
	o := document.GetLoaderImplSpecificOptions(&options{idGen: l.idGen}, opts...)

	ctx = callbacks.EnsureRunInfo(ctx, l.GetType(), components.ComponentOfLoader)
	ctx = callbacks.OnStart(ctx, &document.LoaderCallbackInput{Source: src})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	log := zerolog.Ctx(ctx).With().
		Str("backend", l.backend.Name()).
		Str("target", src.URI).
		Str("format", string(l.cfg.Format)).
		Logger()
	log.Debug().Msg("parsing document")

	outcome, err := l.backend.Parse(ctx, src.URI)
	if err != nil {
		return nil, &NormalizationError{Backend: l.backend.Name(), Err: err}
	}

	docs, err = normalize(l.cfg.Format, src.URI, outcome)
	if err != nil {
		return nil, &NormalizationError{Backend: l.backend.Name(), Err: err}
	}

	for i, doc := range docs {
		source, _ := doc.MetaData[types.MetaSource].(string)
		doc.ID = o.idGen(source, i)
	}

	log.Debug().Int("documents", len(docs)).Msg("document parsed")
	callbacks.OnEnd(ctx, &document.LoaderCallbackOutput{Source: src, Docs: docs})
	return docs, nil
}

// IDGenerator derives a document ID from its source and its position in the
// load output.
type IDGenerator func(source string, position int) string

// DefaultIDGenerator returns a name-based UUID so that loading the same
// target twice yields the same IDs.
func DefaultIDGenerator(source string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%d", source, position)).String()
}
