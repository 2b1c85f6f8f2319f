// Copyright 2025 walteh LLC
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

package charset

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Result is the outcome of a successful decode
type Result struct {
	Text     string // Decoded text
	Encoding string // Name of the decoder that accepted the content
}

// ⛓️ Chain tries decoders in order and stops at the first success
type Chain []Decoder

// 🏭 NewChain builds a chain from encoding names, keeping their order
func NewChain(names ...string) (Chain, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("at least one encoding is required")
	}
	chain := make(Chain, 0, len(names))
	for _, name := range names {
		d, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, d)
	}
	return chain, nil
}

// Default returns the chain for DefaultNames
func Default() Chain {
	chain, err := NewChain(DefaultNames...)
	if err != nil {
		panic(err)
	}
	return chain
}

// Names returns the decoder names in order
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, d := range c {
		names[i] = d.Name()
	}
	return names
}

// 🔄 Decode returns the text from the first decoder that accepts data.
// When none does, the error wraps ErrNoEncodingMatched.
func (c Chain) Decode(data []byte) (*Result, error) {
	for _, d := range c {
		text, err := d.Decode(data)
		if err != nil {
			continue
		}
		return &Result{Text: text, Encoding: d.Name()}, nil
	}
	return nil, errors.Errorf("tried %s: %w", strings.Join(c.Names(), ", "), ErrNoEncodingMatched)
}
