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

package database

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = NewModelRegistry()

// SQLModel is a Bun model whose table is created by migrations. Instance
// returns a struct pointer; lower Priority values are created first so that
// referenced tables exist before the tables that reference them.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores SQL models and returns them in priority order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
}

type modelRegistry struct {
	models []SQLModel
	seen   map[reflect.Type]struct{}
	mutex  sync.RWMutex
}

// NewModelRegistry returns an empty registry.
func NewModelRegistry() ModelRegistry {
	return &modelRegistry{seen: make(map[reflect.Type]struct{})}
}

// Register adds model once per model type.
func (r *modelRegistry) Register(model SQLModel) {
	if model == nil || model.Instance() == nil {
		return
	}
	t := reflect.TypeOf(model.Instance())
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.seen[t]; ok {
		return
	}
	r.seen[t] = struct{}{}
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type modelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a struct pointer and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &modelAdapter{instance: instance, priority: priority}
}

func (a *modelAdapter) Instance() interface{} { return a.instance }

func (a *modelAdapter) Priority() int { return a.priority }

// RegisteredModel adds a model to the default registry.
func RegisteredModel(model SQLModel) {
	defaultRegistry.Register(model)
}

// RegisterModels adds struct pointers to the default registry with
// priorities in argument order.
func RegisterModels(instances ...interface{}) {
	for i, instance := range instances {
		defaultRegistry.Register(NewModelAdapter(instance, i))
	}
}

// GetRegisteredModels returns the models of the default registry.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModelInstances returns the model instances of the default
// registry in priority order.
func RegisteredModelInstances() []interface{} {
	return modelInstances(defaultRegistry.Models())
}

func modelInstances(models []SQLModel) []interface{} {
	out := make([]interface{}, len(models))
	for i, model := range models {
		out[i] = model.Instance()
	}
	return out
}
