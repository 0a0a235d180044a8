// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

// Predicate decides whether a conditional stage should run for a given
// request.
type Predicate func(c *Context) bool

type stageEntry struct {
	predicate Predicate
	handler   HandlerFunc
}

// Pipeline composes an ordered list of stages into a single HandlerFunc
// (spec §4.2). Stages execute in registration order; a stage that does not
// call c.Next() short-circuits everything after it.
type Pipeline struct {
	stages []stageEntry
}

// NewPipeline returns an empty Pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Use appends an unconditional stage and returns the Pipeline for chaining.
func (p *Pipeline) Use(stage HandlerFunc) *Pipeline {
	p.stages = append(p.stages, stageEntry{handler: stage})
	return p
}

// UseIf appends a stage that only runs when predicate(c) is true; when
// false, the stage is skipped and the chain proceeds to the next stage as
// if Next() had been called immediately.
func (p *Pipeline) UseIf(predicate Predicate, stage HandlerFunc) *Pipeline {
	p.stages = append(p.stages, stageEntry{predicate: predicate, handler: stage})
	return p
}

// UseFunc appends a plain function stage; a thin alias over Use kept for
// call sites that want to read as "inline handler" rather than "named
// stage".
func (p *Pipeline) UseFunc(fn func(c *Context)) *Pipeline {
	return p.Use(fn)
}

// Build links the stages into a single HandlerFunc. It returns
// EmptyPipelineError if no stages were registered.
func (p *Pipeline) Build() (HandlerFunc, error) {
	if len(p.stages) == 0 {
		return nil, EmptyPipelineError{}
	}
	handlers := make([]HandlerFunc, len(p.stages))
	for i, s := range p.stages {
		entry := s
		handlers[i] = func(c *Context) {
			if entry.predicate != nil && !entry.predicate(c) {
				c.Next()
				return
			}
			entry.handler(c)
		}
	}
	return func(c *Context) {
		c.handlers = handlers
		c.index = -1
		c.Next()
	}, nil
}
