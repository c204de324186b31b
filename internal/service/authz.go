package service

// Owned is any resource with a single owning username. The ownership rule
// for the whole app is this one predicate: the owner may modify or delete
// the record, nobody else may. There are no roles and no admins.
type Owned interface {
	Owner() string
}

// canModify is the shared authorization check used by every service that
// guards a mutation.
func canModify(resource Owned, actor string) bool {
	return actor != "" && resource.Owner() == actor
}
