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

package types

// PageRequest describes the slice of a result set to fetch as optional
// take/skip values. A nil take means unbounded, a nil skip means no offset.
type PageRequest struct {
	take *int
	skip *int
}

// NewOffsetRequest constructs a PageRequest from raw take/skip values.
func NewOffsetRequest(take, skip *int) *PageRequest {
	return &PageRequest{take: copyInt(take), skip: copyInt(skip)}
}

// NewPageRequest constructs a PageRequest from a 1-based page index and a
// page size: skip = (pageIndex-1)*pageSize, take = pageSize. A page index
// below 1 is treated as 1; a page size below 1 yields an unbounded request.
func NewPageRequest(pageIndex int, pageSize int) *PageRequest {
	if pageSize < 1 {
		return &PageRequest{}
	}
	if pageIndex < 1 {
		pageIndex = 1
	}
	return &PageRequest{take: Int(pageSize), skip: Int((pageIndex - 1) * pageSize)}
}

// Unbounded returns a PageRequest without take or skip.
func Unbounded() *PageRequest { return &PageRequest{} }

// Take returns the number of items to fetch and whether it was set.
func (p *PageRequest) Take() (int, bool) {
	if p == nil || p.take == nil {
		return 0, false
	}
	return *p.take, true
}

// Skip returns the number of items to skip and whether it was set.
func (p *PageRequest) Skip() (int, bool) {
	if p == nil || p.skip == nil {
		return 0, false
	}
	return *p.skip, true
}

// TakePtr returns a copy of the optional take value.
func (p *PageRequest) TakePtr() *int {
	if p == nil {
		return nil
	}
	return copyInt(p.take)
}

// SkipPtr returns a copy of the optional skip value.
func (p *PageRequest) SkipPtr() *int {
	if p == nil {
		return nil
	}
	return copyInt(p.skip)
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// CalculatePageNumber converts an offset window into a 1-based page number.
// It returns 1 when take or skip is absent or zero, otherwise
// ceil(skip/take)+1.
func CalculatePageNumber(take, skip *int) int {
	if take == nil || *take == 0 || skip == nil || *skip == 0 {
		return 1
	}
	t, s := *take, *skip
	q := s / t
	if s%t != 0 && (s < 0) == (t < 0) {
		q++
	}
	return q + 1
}

// PagedResult holds one page of items along with pagination metadata.
// PageSize is the requested take, 0 when the request was unbounded.
// TotalCount is the number of predicate matches before paging.
type PagedResult[T any] struct {
	Items      []*T `json:"items" yaml:"items"`
	PageSize   int  `json:"page_size" yaml:"page_size"`
	PageNumber int  `json:"page_number" yaml:"page_number"`
	TotalCount int  `json:"total_count" yaml:"total_count"`
}

// NewPagedResult assembles a PagedResult from fetched items and the window
// that produced them.
func NewPagedResult[T any](items []*T, take, skip *int, totalCount int) *PagedResult[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	pageSize := 0
	if take != nil {
		pageSize = *take
	}
	return &PagedResult[T]{
		Items:      items,
		PageSize:   pageSize,
		PageNumber: CalculatePageNumber(take, skip),
		TotalCount: totalCount,
	}
}

// NewEmptyPagedResult constructs an empty page for the given request.
func NewEmptyPagedResult[T any](page *PageRequest) *PagedResult[T] {
	return NewPagedResult[T](nil, page.TakePtr(), page.SkipPtr(), 0)
}

// MapPagedResult projects the items of a page, keeping its metadata.
func MapPagedResult[T, R any](page *PagedResult[T], fn func(*T) *R) *PagedResult[R] {
	items := make([]*R, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, fn(item))
	}
	return &PagedResult[R]{
		Items:      items,
		PageSize:   page.PageSize,
		PageNumber: page.PageNumber,
		TotalCount: page.TotalCount,
	}
}

// PageContext is the request-side paging envelope: page index, page size,
// explicit sort descriptors and a typed filter.
type PageContext[F any] struct {
	PageIndex int              `json:"page_index" yaml:"page_index"`
	PageSize  int              `json:"page_size" yaml:"page_size"`
	ListSort  []SortDescriptor `json:"list_sort" yaml:"list_sort"`
	Filter    *F               `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// NewPageContext constructs a PageContext, defaulting the filter to a zero F.
func NewPageContext[F any](pageIndex, pageSize int, listSort []SortDescriptor, filter *F) *PageContext[F] {
	if filter == nil {
		filter = new(F)
	}
	if listSort == nil {
		listSort = make([]SortDescriptor, 0)
	}
	return &PageContext[F]{PageIndex: pageIndex, PageSize: pageSize, ListSort: listSort, Filter: filter}
}

// IsValid reports whether the page index and size are positive and the
// filter and sort list are present.
func (c *PageContext[F]) IsValid() bool {
	return c.PageIndex > 0 && c.PageSize > 0 && c.Filter != nil && c.ListSort != nil
}

// PageRequest converts the page index and size into a take/skip window.
func (c *PageContext[F]) PageRequest() *PageRequest {
	return NewPageRequest(c.PageIndex, c.PageSize)
}

// Sort returns the explicit sort descriptors as a Sort input.
func (c *PageContext[F]) Sort() Sort {
	return SortByDescriptors(c.ListSort...)
}
