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

// ResolvePath finds the property called name in root or in any object
// reachable from it and returns its dotted path from root, spelled as
// declared ("Author.Name"). Direct properties win over nested ones; nested
// objects are searched depth-first in declaration order and the first
// match is returned. Every type is visited at most once, so cyclic
// graphs terminate.
func ResolvePath(root TypeDescriptor, name string) (string, bool) {
	if root == nil || name == "" {
		return "", false
	}
	visited := map[TypeDescriptor]struct{}{root: {}}
	return resolvePath(root, name, "", visited)
}

func resolvePath(desc TypeDescriptor, name, prefix string, visited map[TypeDescriptor]struct{}) (string, bool) {
	props := desc.Properties()
	for _, p := range props {
		if strings.EqualFold(p.Name, name) {
			return joinPath(prefix, p.Name), true
		}
	}
	for _, p := range props {
		if p.Nested == nil {
			continue
		}
		if _, seen := visited[p.Nested]; seen {
			continue
		}
		visited[p.Nested] = struct{}{}
		if path, ok := resolvePath(p.Nested, name, joinPath(prefix, p.Name), visited); ok {
			return path, true
		}
	}
	return "", false
}

// MatchDirect matches name against the direct properties of desc only and
// returns the declared spelling.
func MatchDirect(desc TypeDescriptor, name string) (string, bool) {
	if desc == nil || name == "" {
		return "", false
	}
	for _, p := range desc.Properties() {
		if strings.EqualFold(p.Name, name) {
			return p.Name, true
		}
	}
	return "", false
}

// ResolveExact resolves an explicit dotted path such as "author.name"
// segment by segment, each segment matched case-insensitively against the
// direct properties of the current type. No graph search is performed.
func ResolveExact(root TypeDescriptor, path string) (string, bool) {
	if root == nil || path == "" {
		return "", false
	}
	desc := root
	resolved := ""
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		var hit *Property
		for _, p := range desc.Properties() {
			if strings.EqualFold(p.Name, segment) {
				hit = &p
				break
			}
		}
		if hit == nil {
			return "", false
		}
		resolved = joinPath(resolved, hit.Name)
		if i < len(segments)-1 {
			if hit.Nested == nil {
				return "", false
			}
			desc = hit.Nested
		}
	}
	return resolved, true
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
