// Package docstore implements the repository interfaces on top of a
// store.DocumentStore. Each repository binds one collection name to its
// document shape — a mapping with a single named array, which is exactly
// what lands on disk (or in the SQLite row).
package docstore

import (
	"context"

	"github.com/mkowalczyk/dsn-service/internal/model"
	"github.com/mkowalczyk/dsn-service/internal/repository"
	"github.com/mkowalczyk/dsn-service/internal/store"
)

// Collection names double as file names (jsonfile) and row keys (sqlite).
const (
	UsersCollection       = "users"
	PostsCollection       = "informations"
	MessagesCollection    = "messages"
	SubscribersCollection = "subscribers"
)

// Document shapes. The JSON tags produce the stored layout:
// {"users": [...]}, {"informations": [...]}, and so on.
type (
	usersDoc       struct{ Users []model.User `json:"users"` }
	postsDoc       struct{ Informations []model.Post `json:"informations"` }
	messagesDoc    struct{ Messages []model.Message `json:"messages"` }
	subscribersDoc struct{ Subscribers []model.Subscriber `json:"subscribers"` }
)

// compile-time checks that each repo satisfies its interface
var (
	_ repository.UserRepository       = (*Users)(nil)
	_ repository.PostRepository       = (*Posts)(nil)
	_ repository.MessageRepository    = (*Messages)(nil)
	_ repository.SubscriberRepository = (*Subscribers)(nil)
)

type Users struct{ store store.DocumentStore }

func NewUsers(s store.DocumentStore) *Users { return &Users{store: s} }

func (r *Users) Load(ctx context.Context) ([]model.User, error) {
	var doc usersDoc
	if err := r.store.Load(ctx, UsersCollection, &doc); err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (r *Users) Replace(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	return r.store.Save(ctx, UsersCollection, usersDoc{Users: users})
}

type Posts struct{ store store.DocumentStore }

func NewPosts(s store.DocumentStore) *Posts { return &Posts{store: s} }

func (r *Posts) Load(ctx context.Context) ([]model.Post, error) {
	var doc postsDoc
	if err := r.store.Load(ctx, PostsCollection, &doc); err != nil {
		return nil, err
	}
	return doc.Informations, nil
}

func (r *Posts) Replace(ctx context.Context, posts []model.Post) error {
	if posts == nil {
		posts = []model.Post{}
	}
	return r.store.Save(ctx, PostsCollection, postsDoc{Informations: posts})
}

type Messages struct{ store store.DocumentStore }

func NewMessages(s store.DocumentStore) *Messages { return &Messages{store: s} }

func (r *Messages) Load(ctx context.Context) ([]model.Message, error) {
	var doc messagesDoc
	if err := r.store.Load(ctx, MessagesCollection, &doc); err != nil {
		return nil, err
	}
	return doc.Messages, nil
}

func (r *Messages) Replace(ctx context.Context, messages []model.Message) error {
	if messages == nil {
		messages = []model.Message{}
	}
	return r.store.Save(ctx, MessagesCollection, messagesDoc{Messages: messages})
}

type Subscribers struct{ store store.DocumentStore }

func NewSubscribers(s store.DocumentStore) *Subscribers { return &Subscribers{store: s} }

func (r *Subscribers) Load(ctx context.Context) ([]model.Subscriber, error) {
	var doc subscribersDoc
	if err := r.store.Load(ctx, SubscribersCollection, &doc); err != nil {
		return nil, err
	}
	return doc.Subscribers, nil
}

func (r *Subscribers) Replace(ctx context.Context, subscribers []model.Subscriber) error {
	if subscribers == nil {
		subscribers = []model.Subscriber{}
	}
	return r.store.Save(ctx, SubscribersCollection, subscribersDoc{Subscribers: subscribers})
}

// seeder is satisfied by the jsonfile store, which can create empty
// collection files on first start. The sqlite store has no need for it.
type seeder interface {
	Seed(ctx context.Context, collection string, empty any) error
}

// SeedAll writes an empty document for every collection that does not exist
// yet, so a fresh data directory starts with well-formed files.
func SeedAll(ctx context.Context, s seeder) error {
	if err := s.Seed(ctx, UsersCollection, usersDoc{Users: []model.User{}}); err != nil {
		return err
	}
	if err := s.Seed(ctx, PostsCollection, postsDoc{Informations: []model.Post{}}); err != nil {
		return err
	}
	if err := s.Seed(ctx, MessagesCollection, messagesDoc{Messages: []model.Message{}}); err != nil {
		return err
	}
	return s.Seed(ctx, SubscribersCollection, subscribersDoc{Subscribers: []model.Subscriber{}})
}
