// Package repository defines the typed persistence interfaces the services
// depend on. Every collection exposes the same two operations: load the full
// record set, replace the full record set. That whole-collection contract is
// the point — services perform explicit read-modify-write cycles and the
// backend never merges.
package repository

import (
	"context"

	"github.com/mkowalczyk/dsn-service/internal/model"
)

type UserRepository interface {
	Load(ctx context.Context) ([]model.User, error)
	Replace(ctx context.Context, users []model.User) error
}

type PostRepository interface {
	Load(ctx context.Context) ([]model.Post, error)
	Replace(ctx context.Context, posts []model.Post) error
}

type MessageRepository interface {
	Load(ctx context.Context) ([]model.Message, error)
	Replace(ctx context.Context, messages []model.Message) error
}

type SubscriberRepository interface {
	Load(ctx context.Context) ([]model.Subscriber, error)
	Replace(ctx context.Context, subscribers []model.Subscriber) error
}
