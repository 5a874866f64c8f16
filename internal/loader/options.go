// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import "github.com/cloudwego/eino/components/document"

type options struct {
	idGen IDGenerator
}

// Option configures a Loader at construction.
type Option func(*options)

// WithDefaultIDGenerator replaces the loader's document ID generator.
func WithDefaultIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.idGen = gen
		}
	}
}

// WithIDGenerator overrides the document ID generator for a single Load call.
func WithIDGenerator(gen IDGenerator) document.LoaderOption {
	return document.WrapLoaderImplSpecificOptFn(func(o *options) {
		if gen != nil {
			o.idGen = gen
		}
	})
}
