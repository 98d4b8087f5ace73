/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sorting

import "strings"

// SortItem is one parsed token of a sort string.
type SortItem struct {
	PropertyName string
	IsDescending bool
}

// SortSpec is the parsed form of a sort string, in token order.
type SortSpec []SortItem

// Parser parses the compact sort language: comma separated field names,
// a hyphen marking descending order ("-Id,Created").
type Parser struct {
	leadingOnly bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLeadingHyphenOnly makes only a leading hyphen mark a token as
// descending. Hyphens elsewhere are kept as part of the field name.
func WithLeadingHyphenOnly() ParserOption {
	return func(p *Parser) { p.leadingOnly = true }
}

// NewParser returns a Parser. By default any hyphen in a token marks it
// descending and every hyphen is removed from the field name.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse parses sortBy with the default parser.
func Parse(sortBy string) SortSpec { return defaultParser.Parse(sortBy) }

// Parse returns nil for blank input. Field existence is not checked here.
func (p *Parser) Parse(sortBy string) SortSpec {
	if strings.TrimSpace(sortBy) == "" {
		return nil
	}
	tokens := strings.Split(sortBy, ",")
	spec := make(SortSpec, 0, len(tokens))
	for _, token := range tokens {
		spec = append(spec, p.parseToken(strings.TrimSpace(token)))
	}
	return spec
}

func (p *Parser) parseToken(token string) SortItem {
	if p.leadingOnly {
		if strings.HasPrefix(token, "-") {
			return SortItem{PropertyName: strings.TrimSpace(token[1:]), IsDescending: true}
		}
		return SortItem{PropertyName: token}
	}
	return SortItem{
		PropertyName: strings.TrimSpace(strings.ReplaceAll(token, "-", "")),
		IsDescending: strings.Contains(token, "-"),
	}
}
