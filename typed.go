package vellum

import (
	"github.com/vellumkit/vellum/pkg/core"
	"github.com/vellumkit/vellum/pkg/typed"
)

// PostModel wraps the raw core.Post with a typed front-matter field.
// It is the generic equivalent of core.Post.
type PostModel[T any] = typed.PostModel[T]

// PostMeta is a ready-made front-matter struct for standard post attributes.
type PostMeta = typed.PostMeta

// TypedRepository wraps a core.Repository to provide type-safe access.
// It converts between raw metadata maps and typed structs.
type TypedRepository[T any] = typed.Repository[T]

// TypedService wraps a core.Service to provide type-safe access with
// validation and transactions.
type TypedService[T any] = typed.Service[T]

// NewTyped creates a new type-safe repository wrapper.
// T is the struct your front-matter maps onto.
func NewTyped[T any](repo core.Repository) *TypedRepository[T] {
	return typed.NewRepository[T](repo)
}
