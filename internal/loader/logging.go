// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	ucb "github.com/cloudwego/eino/utils/callbacks"
	"github.com/rs/zerolog"
)

// NewLogHandler returns an eino callback handler that logs loader, indexer,
// and retriever events to log. Register it with callbacks.AppendGlobalHandlers
// or pass it to callbacks.InitCallbacks.
func NewLogHandler(log zerolog.Logger) callbacks.Handler {
	onError := func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
		log.Error().Err(err).Str("component", string(info.Component)).Str("type", info.Type).Msg("component failed")
		return ctx
	}

	return ucb.NewHandlerHelper().
		Loader(&ucb.LoaderCallbackHandler{
			OnStart: func(ctx context.Context, info *callbacks.RunInfo, in *document.LoaderCallbackInput) context.Context {
				log.Debug().Str("type", info.Type).Str("source", in.Source.URI).Msg("load started")
				return ctx
			},
			OnEnd: func(ctx context.Context, info *callbacks.RunInfo, out *document.LoaderCallbackOutput) context.Context {
				log.Info().Str("type", info.Type).Str("source", out.Source.URI).Int("documents", len(out.Docs)).Msg("load finished")
				return ctx
			},
			OnError: onError,
		}).
		Indexer(&ucb.IndexerCallbackHandler{
			OnEnd: func(ctx context.Context, info *callbacks.RunInfo, out *indexer.CallbackOutput) context.Context {
				log.Info().Str("type", info.Type).Int("stored", len(out.IDs)).Msg("documents stored")
				return ctx
			},
			OnError: onError,
		}).
		Retriever(&ucb.RetrieverCallbackHandler{
			OnStart: func(ctx context.Context, info *callbacks.RunInfo, in *retriever.CallbackInput) context.Context {
				log.Debug().Str("type", info.Type).Str("query", in.Query).Int("top_k", in.TopK).Msg("search started")
				return ctx
			},
			OnError: onError,
		}).
		Handler()
}
