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

import "strings"

// node is one segment of the route tree. Children are keyed by literal
// segment text; a single namedChild handles ":name" placeholders for that
// position, and is only consulted after every literal child has failed to
// match, which gives literal segments precedence (spec §4.1 "longest-literal
// match preferred over named-placeholder segments").
type node struct {
	children   map[string]*node
	namedChild *node
	paramName  string
	route      *Route
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// tree is one method's set of registered routes.
type tree struct {
	root *node
}

func newTree() *tree {
	return &tree{root: newNode()}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// insert adds route at path, returning an error if an identical pattern
// (same literal/placeholder shape) is already registered.
func (t *tree) insert(path string, route *Route) error {
	segments := splitPath(path)
	n := t.root
	for _, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if n.namedChild == nil {
				n.namedChild = newNode()
				n.namedChild.paramName = name
			}
			n = n.namedChild
		} else {
			child, ok := n.children[seg]
			if !ok {
				child = newNode()
				n.children[seg] = child
			}
			n = child
		}
	}
	if n.route != nil {
		return &DuplicateRouteError{Method: route.Method, Pattern: route.Pattern}
	}
	n.route = route
	return nil
}

// lookup matches path, returning the route and extracted parameters.
// Trailing slashes are stripped by splitPath before matching.
func (t *tree) lookup(path string) (*Route, map[string]string) {
	segments := splitPath(path)
	var params map[string]string
	n := t.root
	for _, seg := range segments {
		if child, ok := n.children[seg]; ok {
			n = child
			continue
		}
		if n.namedChild != nil {
			if params == nil {
				params = make(map[string]string, 4)
			}
			params[n.namedChild.paramName] = seg
			n = n.namedChild
			continue
		}
		return nil, nil
	}
	if n.route == nil {
		return nil, nil
	}
	return n.route, params
}
